package importer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/possaas/pkg/db"
	"github.com/smallbiznis/possaas/pkg/validator"
	"gorm.io/gorm"
)

// resolver looks references up by natural key. Hits are cached for the whole
// run. Misses are cached until the next chunk is committed, since that chunk
// may contain the missing row.
type resolver struct {
	conn   *gorm.DB
	genID  *snowflake.Node
	now    func() time.Time
	hits   map[string]snowflake.ID
	misses map[string]struct{}
}

func newResolver(conn *gorm.DB, genID *snowflake.Node, now func() time.Time) *resolver {
	return &resolver{
		conn:   conn,
		genID:  genID,
		now:    now,
		hits:   make(map[string]snowflake.ID),
		misses: make(map[string]struct{}),
	}
}

func (r *resolver) forgetMisses() {
	clear(r.misses)
}

// refKey is the lookup key of ref in row after normalisation.
func refKey(ref Reference, row Row) string {
	key := row.Str(ref.Heading)
	if ref.Normalize != nil {
		key = ref.Normalize(key)
	}
	return key
}

// resolveAll resolves the references in order. Unresolved required
// references come back as field errors.
func (r *resolver) resolveAll(refs []Reference, row Row) (Refs, validator.Errors, error) {
	out := make(Refs, len(refs))
	var errs validator.Errors

	for _, ref := range refs {
		key := refKey(ref, row)
		if key == "" {
			if ref.Policy == PolicyRequired {
				errs = append(errs, validator.FieldError{
					Field:   ref.Heading,
					Code:    "required",
					Message: ref.Heading + " is required",
				})
			}
			out[ref.Heading] = nil
			continue
		}

		var scope map[string]any
		if ref.Scope != nil {
			if scope = ref.Scope(out); scope == nil {
				if ref.Policy == PolicyRequired {
					errs = append(errs, notFound(ref, key))
				}
				out[ref.Heading] = nil
				continue
			}
		}

		id, err := r.resolve(ref, key, scope)
		if err != nil {
			return nil, nil, err
		}
		if id == nil && ref.Policy == PolicyRequired {
			errs = append(errs, notFound(ref, key))
		}
		out[ref.Heading] = id
	}
	return out, errs, nil
}

func notFound(ref Reference, key string) validator.FieldError {
	return validator.FieldError{
		Field:   ref.Heading,
		Code:    "exists",
		Message: fmt.Sprintf("%s %q does not exist", ref.Heading, key),
	}
}

func (r *resolver) resolve(ref Reference, key string, scope map[string]any) (*snowflake.ID, error) {
	cacheKey := cacheKeyFor(ref, key, scope)
	if id, ok := r.hits[cacheKey]; ok {
		return &id, nil
	}
	if _, ok := r.misses[cacheKey]; ok {
		return nil, nil
	}

	id, err := r.lookup(ref, key, scope)
	if err != nil {
		return nil, err
	}
	if id == nil && ref.Policy == PolicyCreate && ref.New != nil {
		id, err = r.create(ref, key, scope)
		if err != nil {
			return nil, err
		}
	}
	if id == nil {
		r.misses[cacheKey] = struct{}{}
	} else {
		r.hits[cacheKey] = *id
	}
	return id, nil
}

func (r *resolver) lookup(ref Reference, key string, scope map[string]any) (*snowflake.ID, error) {
	q := r.conn.Table(ref.Table).Where(ref.Column+" = ?", key)
	if len(scope) > 0 {
		q = q.Where(scope)
	}
	var ids []snowflake.ID
	if err := q.Limit(1).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return &ids[0], nil
}

func (r *resolver) create(ref Reference, key string, scope map[string]any) (*snowflake.ID, error) {
	id := r.genID.Generate()
	if err := r.conn.Create(ref.New(id, key, r.now())).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return r.lookup(ref, key, scope)
		}
		return nil, fmt.Errorf("create %s %q: %w", ref.Table, key, err)
	}
	return &id, nil
}

func cacheKeyFor(ref Reference, key string, scope map[string]any) string {
	var b strings.Builder
	b.WriteString(ref.Table)
	b.WriteByte('|')
	b.WriteString(ref.Column)
	b.WriteByte('|')
	b.WriteString(key)

	cols := make([]string, 0, len(scope))
	for col := range scope {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		fmt.Fprintf(&b, "|%s=%v", col, scope[col])
	}
	return b.String()
}
