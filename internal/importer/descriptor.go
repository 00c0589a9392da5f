package importer

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Policy says what happens when a referenced natural key does not exist.
type Policy int

const (
	// PolicyCreate inserts the referenced row.
	PolicyCreate Policy = iota
	// PolicyNullable leaves the foreign key null.
	PolicyNullable
	// PolicyRequired skips the row.
	PolicyRequired
)

func (p Policy) String() string {
	switch p {
	case PolicyCreate:
		return "create"
	case PolicyNullable:
		return "nullable"
	default:
		return "required"
	}
}

// Mode selects how rows reach the database.
type Mode int

const (
	// ModeBatch collects models and upserts them a chunk at a time.
	ModeBatch Mode = iota
	// ModeEachRow upserts every row on its own and runs AfterCreate for new
	// rows.
	ModeEachRow
)

// Reference resolves a heading to the id of a row in another table.
type Reference struct {
	Heading string
	Table   string
	Column  string
	Policy  Policy
	// Normalize rewrites the cell before lookup, e.g. upper-casing codes.
	Normalize func(string) string
	// Scope adds conditions from references resolved earlier. A nil result
	// means the scope is unknown and the lookup finds nothing.
	Scope func(refs Refs) map[string]any
	// New builds the row inserted under PolicyCreate.
	New func(id snowflake.ID, key string, now time.Time) any
	// Self marks a reference into the imported entity's own table. Its key is
	// matched against the row identities still waiting in the current chunk.
	Self bool
}

// Refs holds resolved references by heading. Unresolved nullable references
// are nil.
type Refs map[string]*snowflake.ID

// ID returns the resolved id, or 0.
func (r Refs) ID(heading string) snowflake.ID {
	if id := r[heading]; id != nil {
		return *id
	}
	return 0
}

// BuildContext is handed to Descriptor.Build for every accepted row.
type BuildContext struct {
	ID   snowflake.ID
	Now  time.Time
	Refs Refs
}

// Descriptor declares how one entity is imported.
type Descriptor struct {
	Entity     string
	Permission string
	// Key is the natural-key heading. Rows without it are skipped.
	Key      string
	Headings []string
	// Rules are validator tags per heading.
	Rules      map[string]string
	References []Reference
	Mode       Mode

	// UniqueBy are the columns of the unique index used for upserts.
	UniqueBy []string
	// Update are the columns overwritten when the row already exists.
	Update []string

	// Identity collapses duplicate rows inside one chunk. Defaults to the
	// natural key.
	Identity func(row Row) string
	Build    func(row Row, bc BuildContext) (any, error)
	// AfterCreate runs inside the row transaction for newly inserted rows in
	// ModeEachRow.
	AfterCreate func(tx *gorm.DB, model any) error
	// Slugged entities get slugs normalised after an import.
	Slugged bool
}

func (d Descriptor) identity(row Row) string {
	if d.Identity != nil {
		return d.Identity(row)
	}
	return row.Str(d.Key)
}
