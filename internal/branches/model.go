package branches

// Branch is one organizational unit ("filial") with its own attendance
// records and locally scoped users. Branches are pre-seeded and never
// deleted in normal operation.
type Branch struct {
	ID   string `gorm:"column:id;primaryKey;size:64;not null" json:"id"`
	Name string `gorm:"column:name;size:190;not null" json:"name"`
	City string `gorm:"column:city;size:190;not null" json:"city"`
}

// TableName provides the explicit table binding for GORM.
func (Branch) TableName() string {
	return "branches"
}

// Seed returns the fixed ten-branch directory used to populate an empty
// database. Identifiers are stable and referenced by users and records.
func Seed() []Branch {
	return []Branch{
		{ID: "bdg", Name: "RNO.BDG", City: "Barra da Garças"},
		{ID: "bolivia", Name: "RNO.BOLIVIA", City: "Bolívia"},
		{ID: "boston", Name: "RNO.BOSTON", City: "Boston"},
		{ID: "brava", Name: "RNO.BRAVA", City: "Praia Brava"},
		{ID: "cuiaba", Name: "RNO.CUIABA", City: "Cuiabá"},
		{ID: "joinville", Name: "RNO.JOINVILLE", City: "Joinville"},
		{ID: "medianeira", Name: "RNO.MEDIANEIRA", City: "Medianeira"},
		{ID: "nacoes", Name: "RNO.NACOES", City: "Nações"},
		{ID: "recap", Name: "RNO.RECAP", City: "Recap"},
		{ID: "sto-monte", Name: "RNO.STO MONTE", City: "Santo Antônio do Monte"},
	}
}
