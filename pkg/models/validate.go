package models

import "fmt"

// TenantColumn returns the view's tenant-discriminator column.
func (v *View) TenantColumn() (ViewColumn, bool) {
	for _, c := range v.Columns {
		if c.IsTenantColumn {
			return c, true
		}
	}
	return ViewColumn{}, false
}

// LastModifiedColumn returns the view's last-modified column.
func (v *View) LastModifiedColumn() (ViewColumn, bool) {
	for _, c := range v.Columns {
		if c.IsLastModified {
			return c, true
		}
	}
	return ViewColumn{}, false
}

// HasColumn reports whether the view declares a column with the given name.
func (v *View) HasColumn(name string) bool {
	for _, c := range v.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Validate enforces the view invariant: exactly one tenant-discriminator
// column and exactly one last-modified column. Checked before any query
// executes against the source.
func (v *View) Validate() error {
	var tenant, lastModified int
	for _, c := range v.Columns {
		if c.IsTenantColumn {
			tenant++
		}
		if c.IsLastModified {
			lastModified++
		}
	}
	if tenant != 1 {
		return fmt.Errorf("view %s: expected exactly one tenant column, found %d", v.ID, tenant)
	}
	if lastModified != 1 {
		return fmt.Errorf("view %s: expected exactly one last-modified column, found %d", v.ID, lastModified)
	}
	return nil
}

// SourceColumn returns the view column this mapping reads from. ViewColumn
// wins when set; older catalog rows only carry NameInSource.
func (c ConfigColumn) SourceColumn() string {
	if c.ViewColumn != "" {
		return c.ViewColumn
	}
	return c.NameInSource
}

// Validate checks the configuration mapping against the view it reads from:
// the mapping must be non-empty and every mapped column must exist in the
// view's declared projection.
func (c *Configuration) Validate(view *View) error {
	if len(c.Columns) == 0 {
		return fmt.Errorf("configuration %s has no columns", c.ID)
	}
	for _, col := range c.Columns {
		name := col.SourceColumn()
		if !view.HasColumn(name) {
			return fmt.Errorf("configuration %s maps column %q which view %s does not declare", c.ID, name, view.ID)
		}
		if col.NameInDestination == "" {
			return fmt.Errorf("configuration %s maps %q to an empty destination name", c.ID, name)
		}
	}
	return nil
}

// PrimaryKeyColumns returns the configured columns whose view column is
// flagged as part of the upsert identity.
func (c *Configuration) PrimaryKeyColumns(view *View) []ConfigColumn {
	flagged := map[string]bool{}
	for _, vc := range view.Columns {
		if vc.IsPrimaryKey {
			flagged[vc.Name] = true
		}
	}
	var keys []ConfigColumn
	for _, col := range c.Columns {
		if flagged[col.SourceColumn()] {
			keys = append(keys, col)
		}
	}
	return keys
}
