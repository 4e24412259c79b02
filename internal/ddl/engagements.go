package ddl

// EngagementsTable is the default destination table name.
const EngagementsTable = "engagements"

// Engagements returns the fixed definition of the engagements table under the
// given name. Column names match the keys of a HubSpot engagement object so
// that records can be inserted verbatim.
func Engagements(name string) TableDef {
	if name == "" {
		name = EngagementsTable
	}
	return TableDef{
		Name: name,
		Columns: []ColumnDef{
			{Name: "id", Kind: KindInt, PrimaryKey: true},
			{Name: "portalId", Kind: KindInt, Nullable: true},
			{Name: "active", Kind: KindBool, Nullable: true},
			{Name: "createdAt", Kind: KindBigInt, Nullable: true},
			{Name: "lastUpdated", Kind: KindBigInt, Nullable: true},
			{Name: "createdBy", Kind: KindBigInt, Nullable: true},
			{Name: "modifiedBy", Kind: KindBigInt, Nullable: true},
			{Name: "timestamp", Kind: KindBigInt, Nullable: true},
			{Name: "ownerId", Kind: KindInt, Nullable: true},
			{Name: "type", Kind: KindText, Nullable: true},
			{Name: "uid", Kind: KindText, Nullable: true},
			{Name: "source", Kind: KindText, Nullable: true},
		},
	}
}
