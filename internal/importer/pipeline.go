package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/possaas/pkg/db"
	"github.com/smallbiznis/possaas/pkg/validator"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultChunkSize = 500

var ErrMissingHeading = errors.New("import_heading_missing")

// RowFailure explains why a line was skipped. Row is the spreadsheet line
// number, counting the heading as line 1.
type RowFailure struct {
	Row    int              `json:"row"`
	Key    string           `json:"key,omitempty"`
	Errors validator.Errors `json:"errors"`
}

type Report struct {
	BatchID  string       `json:"batch_id"`
	Entity   string       `json:"entity"`
	Total    int          `json:"total"`
	Imported int          `json:"imported"`
	Skipped  int          `json:"skipped"`
	Failures []RowFailure `json:"failures"`
}

func (r *Report) fail(line int, key string, errs validator.Errors) {
	r.Skipped++
	r.Failures = append(r.Failures, RowFailure{Row: line, Key: key, Errors: errs})
}

// Pipeline runs one import against a tenant connection.
type Pipeline struct {
	conn      *gorm.DB
	genID     *snowflake.Node
	validate  *validator.Validator
	now       func() time.Time
	chunkSize int
	log       *zap.Logger
}

func NewPipeline(conn *gorm.DB, genID *snowflake.Node, now func() time.Time, chunkSize int, log *zap.Logger) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Pipeline{
		conn:      conn,
		genID:     genID,
		validate:  validator.New(),
		now:       now,
		chunkSize: chunkSize,
		log:       log,
	}
}

type pending struct {
	identity string
	model    any
}

// Run streams rows from r into the tenant database. Chunks that were
// committed before an error stay committed; the partial report is returned
// with the error.
func (p *Pipeline) Run(ctx context.Context, d Descriptor, r RowReader) (*Report, error) {
	report := &Report{
		BatchID:  ulid.Make().String(),
		Entity:   d.Entity,
		Failures: []RowFailure{},
	}
	if !containsHeading(r.Headings(), d.Key) {
		return report, fmt.Errorf("%w: %s", ErrMissingHeading, d.Key)
	}

	conn := p.conn.WithContext(ctx)
	res := newResolver(conn, p.genID, p.now)
	log := p.log.With(zap.String("entity", d.Entity), zap.String("batch_id", report.BatchID))

	chunk := make([]pending, 0, p.chunkSize)
	queued := make(map[string]struct{}, p.chunkSize)
	selfRefs := slices.ContainsFunc(d.References, func(ref Reference) bool { return ref.Self })
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := p.upsertChunk(conn, d, chunk); err != nil {
			return err
		}
		report.Imported += len(chunk)
		chunk = chunk[:0]
		clear(queued)
		res.forgetMisses()
		return nil
	}

	line := 1
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, err
		}
		line++

		if row.Empty() {
			continue
		}
		report.Total++

		key := row.Str(d.Key)
		if key == "" {
			report.fail(line, "", validator.Errors{{Field: d.Key, Code: "required", Message: d.Key + " is required"}})
			continue
		}
		if errs := p.validate.Map(row.values(), d.Rules); len(errs) > 0 {
			report.fail(line, key, errs)
			continue
		}

		// A row pointing at a row still queued in this chunk, like a derived
		// unit after its base unit, needs that row committed first.
		if refersToQueued(d.References, row, queued) {
			if err := flush(); err != nil {
				return report, fmt.Errorf("upsert chunk before line %d: %w", line, err)
			}
		}

		refs, errs, err := res.resolveAll(d.References, row)
		if err != nil {
			return report, fmt.Errorf("resolve references on line %d: %w", line, err)
		}
		if len(errs) > 0 {
			report.fail(line, key, errs)
			continue
		}

		model, err := d.Build(row, BuildContext{ID: p.genID.Generate(), Now: p.now(), Refs: refs})
		if err != nil {
			report.fail(line, key, validator.Errors{{Field: d.Key, Code: "invalid", Message: err.Error()}})
			continue
		}

		if d.Mode == ModeEachRow {
			if err := p.updateOrCreate(conn, d, model); err != nil {
				return report, fmt.Errorf("upsert line %d: %w", line, err)
			}
			report.Imported++
			if selfRefs {
				res.forgetMisses()
			}
			continue
		}

		identity := d.identity(row)
		chunk = append(chunk, pending{identity: identity, model: model})
		queued[identity] = struct{}{}
		if len(chunk) >= p.chunkSize {
			if err := flush(); err != nil {
				return report, fmt.Errorf("upsert chunk ending on line %d: %w", line, err)
			}
		}
	}
	if err := flush(); err != nil {
		return report, fmt.Errorf("upsert final chunk: %w", err)
	}

	log.Info("import finished",
		zap.Int("total", report.Total),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// upsertChunk writes one chunk in its own transaction. Later rows win over
// earlier rows with the same identity.
func (p *Pipeline) upsertChunk(conn *gorm.DB, d Descriptor, chunk []pending) error {
	index := make(map[string]int, len(chunk))
	models := make([]any, 0, len(chunk))
	for _, item := range chunk {
		if i, ok := index[item.identity]; ok {
			models[i] = item.model
			continue
		}
		index[item.identity] = len(models)
		models = append(models, item.model)
	}

	columns := make([]clause.Column, len(d.UniqueBy))
	for i, col := range d.UniqueBy {
		columns[i] = clause.Column{Name: col}
	}

	return conn.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   columns,
			DoUpdates: clause.AssignmentColumns(d.Update),
		}).Create(typedSlice(models)).Error
	})
}

// updateOrCreate looks the row up by its unique columns and either updates
// the Update columns or inserts it and runs AfterCreate.
func (p *Pipeline) updateOrCreate(conn *gorm.DB, d Descriptor, model any) error {
	return conn.Transaction(func(tx *gorm.DB) error {
		conds, err := uniqueConditions(tx, model, d.UniqueBy)
		if err != nil {
			return err
		}

		existing := reflect.New(reflect.TypeOf(model).Elem()).Interface()
		err = tx.Where(conds).Take(existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(model).Error; err != nil {
				if db.IsDuplicateKeyErr(err) {
					return fmt.Errorf("concurrent insert of %v: %w", conds, err)
				}
				return err
			}
			if d.AfterCreate != nil {
				return d.AfterCreate(tx, model)
			}
			return nil
		case err != nil:
			return err
		}

		setID(model, getID(existing))
		return tx.Model(model).Select(d.Update).Updates(model).Error
	})
}

func uniqueConditions(tx *gorm.DB, model any, columns []string) (map[string]any, error) {
	stmt := &gorm.Statement{DB: tx}
	if err := stmt.Parse(model); err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(model)
	conds := make(map[string]any, len(columns))
	for _, col := range columns {
		field := stmt.Schema.LookUpField(col)
		if field == nil {
			return nil, fmt.Errorf("unknown unique column %s on %s", col, stmt.Schema.Table)
		}
		value, _ := field.ValueOf(tx.Statement.Context, rv)
		conds[col] = value
	}
	return conds, nil
}

// typedSlice turns []any of *T into *[]*T so gorm sees one model type.
func typedSlice(models []any) any {
	elem := reflect.TypeOf(models[0])
	slice := reflect.MakeSlice(reflect.SliceOf(elem), 0, len(models))
	for _, m := range models {
		slice = reflect.Append(slice, reflect.ValueOf(m))
	}
	ptr := reflect.New(slice.Type())
	ptr.Elem().Set(slice)
	return ptr.Interface()
}

func getID(model any) snowflake.ID {
	f := reflect.Indirect(reflect.ValueOf(model)).FieldByName("ID")
	if !f.IsValid() {
		return 0
	}
	id, _ := f.Interface().(snowflake.ID)
	return id
}

func setID(model any, id snowflake.ID) {
	f := reflect.Indirect(reflect.ValueOf(model)).FieldByName("ID")
	if f.IsValid() && f.CanSet() {
		f.Set(reflect.ValueOf(id))
	}
}

func refersToQueued(refs []Reference, row Row, queued map[string]struct{}) bool {
	if len(queued) == 0 {
		return false
	}
	for _, ref := range refs {
		if !ref.Self {
			continue
		}
		if _, ok := queued[refKey(ref, row)]; ok {
			return true
		}
	}
	return false
}

func containsHeading(headings []string, want string) bool {
	for _, h := range headings {
		if strings.EqualFold(h, want) {
			return true
		}
	}
	return false
}
