package datastore

// GeneralInfo holds the registry data for a single health establishment.
// CNES is the national registry code and is the only mandatory attribute;
// everything else may be missing from the upstream dataset and is therefore
// modeled as a pointer.
type GeneralInfo struct {
	CNES      int      `gorm:"column:cnes;primaryKey" json:"cnes"`
	Name      *string  `gorm:"column:name" json:"name"`
	City      *string  `gorm:"column:city" json:"city"`
	State     *string  `gorm:"column:state" json:"state"`
	Kind      *string  `gorm:"column:kind" json:"kind"`
	CEP       *string  `gorm:"column:cep" json:"cep"`
	CNPJ      *string  `gorm:"column:cnpj" json:"cnpj"`
	Address   *string  `gorm:"column:address" json:"address"`
	Number    *string  `gorm:"column:number" json:"number"`
	District  *string  `gorm:"column:district" json:"district"`
	Telephone *string  `gorm:"column:telephone" json:"telephone"`
	Latitude  *float64 `gorm:"column:latitude" json:"latitude"`
	Longitude *float64 `gorm:"column:longitude" json:"longitude"`
	Email     *string  `gorm:"column:email" json:"email"`
	Shift     *string  `gorm:"column:shift" json:"shift"`
}

// TableName overrides the default GORM pluralization.
func (GeneralInfo) TableName() string {
	return "general_infos"
}

// MedicalService is one catalog entry of the SUS specialized-service table.
// The same service code appears once per classification, so the primary key
// is the (code, class_code) pair.
type MedicalService struct {
	Code           int    `gorm:"column:code;primaryKey;autoIncrement:false" json:"code"`
	ClassCode      int    `gorm:"column:class_code;primaryKey;autoIncrement:false" json:"class_code"`
	Service        string `gorm:"column:service" json:"service"`
	Classification string `gorm:"column:classification" json:"classification"`
}

func (MedicalService) TableName() string {
	return "medical_services"
}

// ServiceRecord links an establishment to one specialized service it offers.
// References to GeneralInfo and MedicalService are advisory: the source
// dataset contains records pointing at establishments or catalog entries
// that were never ingested, and duplicates of the same offering. Both are
// kept as-is and handled at query time.
type ServiceRecord struct {
	ID             uint `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CNES           int  `gorm:"column:cnes;index:idx_service_records_cnes" json:"cnes"`
	Service        int  `gorm:"column:service;index:idx_service_records_offering" json:"service"`
	Classification int  `gorm:"column:classification;index:idx_service_records_offering" json:"classification"`
}

func (ServiceRecord) TableName() string {
	return "service_records"
}
