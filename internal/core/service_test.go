package core

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pidcore/internal/blob"
	"pidcore/internal/codec"
	"pidcore/internal/infra/persistence/memory"
	"pidcore/pkg/domain"
)

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *memory.Store, blob.Store) {
	t.Helper()
	repo := memory.NewStore()
	blobs := blob.NewMemory()
	svc := NewService(append([]ServiceOption{WithRepository(repo), WithBlobStore(blobs)}, opts...)...)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, repo, blobs
}

func populate(t *testing.T, s *DiagramStore) {
	t.Helper()
	s.UpdateMetadata(func(m *domain.DiagramMetadata) { m.Title = "Feed section" })
	_, err := s.AddEquipment(tank("tk", "TK-101"))
	require.NoError(t, err)
	_, err = s.AddEquipment(pump("p", "P-101"))
	require.NoError(t, err)
	_, err = s.Connect(domain.Endpoint{ElementID: "tk", NozzleID: "n2"}, domain.Endpoint{ElementID: "p", NozzleID: "suction"}, domain.LineProcess)
	require.NoError(t, err)
}

func TestServiceSaveAndOpen(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	populate(t, svc.Store())
	saved := svc.Store().Diagram()
	require.True(t, svc.Store().IsDirty())

	require.NoError(t, svc.Save(ctx))
	require.False(t, svc.Store().IsDirty())
	stored, err := repo.Load(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, saved, stored)

	svc.Store().NewDiagram()
	require.NoError(t, svc.Open(ctx, saved.ID))
	require.Equal(t, saved, svc.Store().Diagram())
	require.False(t, svc.Store().IsDirty())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Feed section", list[0].Title)
}

func TestServiceOpenMissingLeavesDiagram(t *testing.T) {
	svc, _, _ := newTestService(t)
	populate(t, svc.Store())
	before := svc.Store().Diagram()
	version := svc.Store().Version()

	err := svc.Open(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Equal(t, before, svc.Store().Diagram())
	require.Equal(t, version, svc.Store().Version())
}

func TestServiceWithoutBackends(t *testing.T) {
	ctx := context.Background()
	svc := NewService()
	require.ErrorIs(t, svc.Save(ctx), ErrNoRepository)
	require.ErrorIs(t, svc.Open(ctx, "x"), ErrNoRepository)
	_, err := svc.List(ctx)
	require.ErrorIs(t, err, ErrNoRepository)
	_, err = svc.Export(ctx, "a.json", codec.FormatJSON)
	require.ErrorIs(t, err, ErrNoBlobStore)
	_, err = svc.Import(ctx, "a.json")
	require.ErrorIs(t, err, ErrNoBlobStore)
	require.NoError(t, svc.Close())
}

func TestServiceExportImportEachFormat(t *testing.T) {
	for _, c := range codec.All() {
		t.Run(string(c.Format()), func(t *testing.T) {
			ctx := context.Background()
			svc, _, blobs := newTestService(t)
			populate(t, svc.Store())
			want := svc.Store().Diagram()

			key := "exports/feed" + c.Extensions()[0]
			info, err := svc.Export(ctx, key, c.Format())
			require.NoError(t, err)
			require.Equal(t, key, info.Key)
			require.Equal(t, c.ContentType(), info.ContentType)
			require.Equal(t, want.ID, info.Metadata[MetaDiagramID])

			_, err = svc.Export(ctx, key, c.Format())
			require.NoError(t, err, "export overwrites")

			svc.Store().NewDiagram()
			got, err := svc.Import(ctx, key)
			require.NoError(t, err)
			require.Equal(t, want, got)
			require.Equal(t, want, svc.Store().Diagram())

			head, err := blobs.Head(ctx, key)
			require.NoError(t, err)
			require.Positive(t, head.Size)
		})
	}
}

func TestServiceExportDerivesKey(t *testing.T) {
	svc, _, _ := newTestService(t)
	populate(t, svc.Store())
	info, err := svc.Export(context.Background(), "", codec.FormatYAML)
	require.NoError(t, err)
	require.Equal(t, "Feed section.yaml", info.Key)
}

func TestServiceExportUnknownFormat(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Export(context.Background(), "x.bin", codec.Format("bson"))
	require.ErrorIs(t, err, codec.ErrUnknownFormat)
}

func TestServiceImportFailuresLeaveDiagram(t *testing.T) {
	ctx := context.Background()
	svc, _, blobs := newTestService(t)
	populate(t, svc.Store())
	before := svc.Store().Diagram()

	_, err := blobs.Put(ctx, "broken.json", strings.NewReader("{not json"), blob.PutOptions{})
	require.NoError(t, err)
	_, err = svc.Import(ctx, "broken.json")
	require.Error(t, err)

	_, err = svc.Import(ctx, "absent.json")
	require.ErrorIs(t, err, blob.ErrNotFound)

	_, err = svc.Import(ctx, "notes.txt")
	require.ErrorIs(t, err, codec.ErrUnknownFormat)

	_, err = svc.ImportFrom(strings.NewReader(`{"id":"x","version":"2.0.0"}`), codec.NewJSON(false))
	require.ErrorIs(t, err, codec.ErrUnsupportedVersion)

	require.Equal(t, before, svc.Store().Diagram())
}

func TestServiceImportFromInstallsDiagram(t *testing.T) {
	svc, _, _ := newTestService(t)
	src := NewDiagramStore()
	populate(t, src)
	var buf bytes.Buffer
	require.NoError(t, codec.NewJSON(true).Encode(&buf, src.Diagram()))

	got, err := svc.ImportFrom(&buf, codec.NewJSON(true))
	require.NoError(t, err)
	require.Equal(t, src.Diagram(), got)
	require.True(t, svc.Store().CanUndo(), "import can be undone")
}

func TestServiceValidateCachesPerVersion(t *testing.T) {
	ctx := context.Background()
	metrics := &captureMetricsRecorder{}
	svc, _, _ := newTestService(t, WithMetrics(metrics), WithAutoValidate(false))
	populate(t, svc.Store())

	res, err := svc.Validate(ctx)
	require.NoError(t, err)
	_, err = svc.Validate(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, metrics.count("validate"))
	cached, fresh := svc.Validation()
	require.True(t, fresh)
	require.Equal(t, res, cached)

	_, err = svc.Store().AddLine(pipe("dangling", "p", "ghost"))
	require.NoError(t, err)
	_, fresh = svc.Validation()
	require.False(t, fresh)

	res, err = svc.Validate(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, metrics.count("validate"))
	require.False(t, res.Valid)
	require.NotEmpty(t, res.ByRule(domain.RuleOrphanLine))
	require.NotEmpty(t, metrics.results)
}

func TestServiceAutoValidatesStructuralChanges(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	svc, _, _ := newTestService(t, WithMetrics(metrics))
	_, err := svc.Store().AddLine(pipe("dangling", "a", "b"))
	require.NoError(t, err)

	res, fresh := svc.Validation()
	require.True(t, fresh)
	require.False(t, res.Valid)

	calls := metrics.count("validate")
	svc.Store().Select("dangling")
	require.Equal(t, calls, metrics.count("validate"), "selection does not re-validate")
}

func TestServiceValidationOptions(t *testing.T) {
	svc, _, _ := newTestService(t,
		WithAutoValidate(false),
		WithValidationOptions(domain.ValidationOptions{Rules: []domain.RuleType{domain.RuleMissingTag}}),
	)
	_, err := svc.Store().AddLine(pipe("dangling", "a", "b"))
	require.NoError(t, err)
	_, err = svc.Store().AddEquipment(tank("tk", ""))
	require.NoError(t, err)

	res, err := svc.Validate(context.Background())
	require.NoError(t, err)
	for _, is := range res.Issues {
		require.Equal(t, domain.RuleMissingTag, is.Rule)
	}
}

func TestServiceValidateHonoursCancellation(t *testing.T) {
	svc, _, _ := newTestService(t, WithAutoValidate(false))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Validate(ctx)
	require.ErrorIs(t, err, context.Canceled)
	_, fresh := svc.Validation()
	require.False(t, fresh)
}

func TestServiceTracesAndMeasuresOperations(t *testing.T) {
	ctx := context.Background()
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	svc, _, _ := newTestService(t, WithMetrics(metrics), WithTracer(tracer), WithAutoValidate(false))
	populate(t, svc.Store())

	require.NoError(t, svc.Save(ctx))
	require.Error(t, svc.Open(ctx, "missing"))
	_, err := svc.Export(ctx, "d.json", codec.FormatJSON)
	require.NoError(t, err)
	_, err = svc.Import(ctx, "d.json")
	require.NoError(t, err)

	require.True(t, tracer.has("save", true))
	require.True(t, tracer.has("open", false))
	require.True(t, tracer.has("export", true))
	require.True(t, tracer.has("import", true))
	require.True(t, metrics.has("save", true))
	require.True(t, metrics.has("open", false))
	require.True(t, metrics.has(string(OpAddEquipment), true), "store shares the recorder")
}

func TestNewServiceFromConfig(t *testing.T) {
	cfg := Config{
		Storage:      StorageMemory,
		Blob:         blob.Config{Driver: blob.DriverMemory},
		HistoryLimit: 2,
	}
	svc, err := NewServiceFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	for range 4 {
		_, err := svc.Store().PlaceValve(domain.ValveGate, domain.Position{})
		require.NoError(t, err)
	}
	past, _ := svc.Store().HistoryDepth()
	require.Equal(t, 2, past)
	require.NoError(t, svc.Save(context.Background()))
	_, err = svc.Export(context.Background(), "", codec.FormatMsgpack)
	require.NoError(t, err)
}

func TestNewServiceFromConfigErrors(t *testing.T) {
	_, err := NewServiceFromConfig(context.Background(), Config{Storage: "oracle"})
	require.ErrorContains(t, err, "unknown storage driver")

	_, err = NewServiceFromConfig(context.Background(), Config{Storage: StorageMemory, Blob: blob.Config{Driver: "tape"}})
	require.ErrorContains(t, err, "unknown blob driver")
}
