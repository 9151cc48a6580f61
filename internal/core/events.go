package core

// Op names a store operation in change events, logs and metrics.
type Op string

// Store operations.
const (
	OpAddEquipment     Op = "add_equipment"
	OpUpdateEquipment  Op = "update_equipment"
	OpRemoveEquipment  Op = "remove_equipment"
	OpAddValve         Op = "add_valve"
	OpUpdateValve      Op = "update_valve"
	OpRemoveValve      Op = "remove_valve"
	OpAddInstrument    Op = "add_instrument"
	OpUpdateInstrument Op = "update_instrument"
	OpRemoveInstrument Op = "remove_instrument"
	OpAddLine          Op = "add_line"
	OpUpdateLine       Op = "update_line"
	OpRemoveLine       Op = "remove_line"
	OpAddAnnotation    Op = "add_annotation"
	OpUpdateAnnotation Op = "update_annotation"
	OpRemoveAnnotation Op = "remove_annotation"
	OpConnect          Op = "connect"
	OpDeleteSelected   Op = "delete_selected"
	OpUpdateMetadata   Op = "update_metadata"
	OpSetViewport      Op = "set_viewport"
	OpSetDiagram       Op = "set_diagram"
	OpNewDiagram       Op = "new_diagram"
	OpUndo             Op = "undo"
	OpRedo             Op = "redo"
	OpSelect           Op = "select"
	OpMarkSaved        Op = "mark_saved"
)

// ChangeEvent is delivered to observers after an operation completes.
// Structural is false for selection and save-state changes that leave the
// diagram untouched.
type ChangeEvent struct {
	Op         Op
	IDs        []string
	Version    uint64
	Structural bool
}

// Observer receives change events synchronously on the mutating goroutine,
// after the store lock has been released.
type Observer func(ChangeEvent)
