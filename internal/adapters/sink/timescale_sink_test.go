package sink

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ghalamif/AquaFlow/internal/domain"
)

func TestTimescaleSinkWriteBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "pipeline_flow")
	ts := time.Now()

	statuses := []*domain.PipelineStatus{
		{
			PipelineID: "pipe-1",
			Round:      "round-1",
			Timestamp:  ts,
			FlowActive: true,
			FlowRatio:  0.5,
			FlowRate:   42,
			Pressure:   3.1,
			Status:     "active",
			Segments:   []domain.FlowSegment{{Start: 0, End: 0.5, HasFlow: true}, {Start: 0.5, End: 1}},
		},
		{
			PipelineID: "pipe-2",
			Round:      "round-1",
			Timestamp:  ts,
			Status:     "inactive",
		},
	}

	mock.ExpectExec(`INSERT INTO pipeline_flow \(pipeline_id,round,ts,flow_active,flow_ratio,flow_rate,pressure,status,segments\) VALUES \(\$1,.*\$9\),\(\$10,.*\$18\) ON CONFLICT \(pipeline_id, ts\) DO NOTHING`).
		WithArgs(
			"pipe-1", "round-1", ts, true, 0.5, 42.0, 3.1, "active", sqlmock.AnyArg(),
			"pipe-2", "round-1", ts, false, 0.0, 0.0, 0.0, "inactive", sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(2, 2))

	if err := sink.WriteBatch(statuses); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkWriteBatchError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO pipeline_flow`).WillReturnError(errors.New("connection reset"))

	sink := NewTimescaleSink(db, "pipeline_flow")
	if err := sink.WriteBatch([]*domain.PipelineStatus{{PipelineID: "p"}}); err == nil {
		t.Fatalf("expected exec error to surface")
	}
}

func TestTimescaleSinkWriteBatchNoStatuses(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "pipeline_flow")
	if err := sink.WriteBatch(nil); err != nil {
		t.Fatalf("expected nil error for empty batch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSinkNames(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	if name := NewTimescaleSink(db, "pipeline_flow").Name(); name != "timescaledb" {
		t.Fatalf("expected sink name timescaledb, got %s", name)
	}
	if name := (NopSink{}).Name(); name != "nop" {
		t.Fatalf("expected nop sink name, got %s", name)
	}
	if err := (NopSink{}).WriteBatch([]*domain.PipelineStatus{{}}); err != nil {
		t.Fatalf("nop sink: %v", err)
	}
}
