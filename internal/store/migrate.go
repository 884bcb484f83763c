package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entschema "entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/matthewbaird/mdb/internal/schema"
)

var (
	documentsColumns = []*entschema.Column{
		{Name: "path", Type: field.TypeString},
		{Name: "folder", Type: field.TypeString, Default: ""},
		{Name: "name", Type: field.TypeString, Default: ""},
		{Name: "ext", Type: field.TypeString, Default: ""},
		{Name: "size", Type: field.TypeInt64, Default: 0},
		{Name: "ctime", Type: field.TypeInt64, Default: 0},
		{Name: "mtime", Type: field.TypeInt64, Default: 0},
		{Name: "content", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "tags", Type: field.TypeJSON, Nullable: true},
		{Name: "links", Type: field.TypeJSON, Nullable: true},
		{Name: "backlinks", Type: field.TypeJSON, Nullable: true},
		{Name: "embeds", Type: field.TypeJSON, Nullable: true},
		{Name: "properties", Type: field.TypeJSON, Nullable: true},
	}

	documentsTable = &entschema.Table{
		Name:       schema.Table,
		Columns:    documentsColumns,
		PrimaryKey: []*entschema.Column{documentsColumns[0]},
		Indexes: []*entschema.Index{
			{Name: "documents_folder", Columns: []*entschema.Column{documentsColumns[1]}},
			{Name: "documents_name", Columns: []*entschema.Column{documentsColumns[2]}},
			{Name: "documents_mtime", Columns: []*entschema.Column{documentsColumns[6]}},
		},
	}
)

// migrate creates or updates the documents table and its indexes.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := entschema.NewMigrate(drv, entschema.WithDropIndex(true))
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	if err := m.Create(ctx, documentsTable); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}
