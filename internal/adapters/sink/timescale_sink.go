package sink

import (
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ghalamif/AquaFlow/internal/domain"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

var statusColumns = []string{
	"pipeline_id", "round", "ts", "flow_active", "flow_ratio",
	"flow_rate", "pressure", "status", "segments",
}

// TimescaleSink appends pipeline statuses to a hypertable keyed by (pipeline_id, ts).
type TimescaleSink struct {
	db        *sql.DB
	tableName string
}

func NewTimescaleSink(db *sql.DB, table string) *TimescaleSink {
	return &TimescaleSink{db: db, tableName: table}
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

func (t *TimescaleSink) WriteBatch(statuses []*domain.PipelineStatus) error {
	if len(statuses) == 0 {
		return nil
	}

	ins := sq.Insert(t.tableName).
		Columns(statusColumns...).
		PlaceholderFormat(sq.Dollar)

	for _, s := range statuses {
		segs, err := json.Marshal(s.Segments)
		if err != nil {
			return fmt.Errorf("marshal segments: %w", err)
		}
		ins = ins.Values(
			s.PipelineID,
			s.Round,
			s.Timestamp,
			s.FlowActive,
			s.FlowRatio,
			s.FlowRate,
			s.Pressure,
			s.Status,
			segs,
		)
	}

	// idempotent via the (pipeline_id, ts) unique key
	query, args, err := ins.Suffix("ON CONFLICT (pipeline_id, ts) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	_, err = t.db.Exec(query, args...)
	return err
}

var _ ports.StatusSink = (*TimescaleSink)(nil)

// NopSink discards statuses. It is used when no database is configured.
type NopSink struct{}

func (NopSink) WriteBatch([]*domain.PipelineStatus) error { return nil }
func (NopSink) Name() string                               { return "nop" }

var _ ports.StatusSink = NopSink{}
