package models

import "testing"

func testView() *View {
	return &View{
		ID:        "view-1",
		SourceID:  "source-1",
		TableName: "orders",
		Columns: []ViewColumn{
			{Name: "id", IsPrimaryKey: true},
			{Name: "customer_id", IsTenantColumn: true},
			{Name: "amount"},
			{Name: "updated_at", IsLastModified: true},
		},
	}
}

func TestViewValidate(t *testing.T) {
	v := testView()
	if err := v.Validate(); err != nil {
		t.Fatalf("valid view rejected: %v", err)
	}

	noTenant := testView()
	noTenant.Columns[1].IsTenantColumn = false
	if err := noTenant.Validate(); err == nil {
		t.Error("Expected error for view without tenant column")
	}

	twoLastModified := testView()
	twoLastModified.Columns[2].IsLastModified = true
	if err := twoLastModified.Validate(); err == nil {
		t.Error("Expected error for view with two last-modified columns")
	}
}

func TestViewDiscriminatorLookups(t *testing.T) {
	v := testView()

	tenant, ok := v.TenantColumn()
	if !ok || tenant.Name != "customer_id" {
		t.Errorf("TenantColumn = %q, %v; want customer_id, true", tenant.Name, ok)
	}

	lm, ok := v.LastModifiedColumn()
	if !ok || lm.Name != "updated_at" {
		t.Errorf("LastModifiedColumn = %q, %v; want updated_at, true", lm.Name, ok)
	}

	if v.HasColumn("missing") {
		t.Error("HasColumn(missing) = true")
	}
}

func TestConfigurationValidate(t *testing.T) {
	view := testView()

	cfg := &Configuration{
		ID:     "cfg-1",
		ViewID: view.ID,
		Columns: []ConfigColumn{
			{NameInSource: "id", NameInDestination: "order_id", ViewColumn: "id"},
			{NameInSource: "amount", NameInDestination: "amount", ViewColumn: "amount"},
		},
	}
	if err := cfg.Validate(view); err != nil {
		t.Fatalf("valid configuration rejected: %v", err)
	}

	empty := &Configuration{ID: "cfg-2", ViewID: view.ID}
	if err := empty.Validate(view); err == nil {
		t.Error("Expected error for empty configuration")
	}

	unknown := &Configuration{
		ID:      "cfg-3",
		ViewID:  view.ID,
		Columns: []ConfigColumn{{NameInSource: "nope", NameInDestination: "nope", ViewColumn: "nope"}},
	}
	if err := unknown.Validate(view); err == nil {
		t.Error("Expected error for column the view does not declare")
	}
}

func TestConfigurationPrimaryKeyColumns(t *testing.T) {
	view := testView()
	cfg := &Configuration{
		ID:     "cfg-1",
		ViewID: view.ID,
		Columns: []ConfigColumn{
			{NameInSource: "id", NameInDestination: "order_id", ViewColumn: "id"},
			{NameInSource: "amount", NameInDestination: "amount", ViewColumn: "amount"},
		},
	}

	keys := cfg.PrimaryKeyColumns(view)
	if len(keys) != 1 || keys[0].NameInDestination != "order_id" {
		t.Fatalf("PrimaryKeyColumns = %+v; want single order_id mapping", keys)
	}
}

func TestTransferStatusTerminal(t *testing.T) {
	for status, terminal := range map[TransferStatus]bool{
		TransferStarted:   false,
		TransferPending:   false,
		TransferComplete:  true,
		TransferFailed:    true,
		TransferCancelled: true,
	} {
		if got := status.Terminal(); got != terminal {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, terminal)
		}
	}
}
