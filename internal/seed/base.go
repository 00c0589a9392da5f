package seed

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	retaildomain "github.com/smallbiznis/possaas/internal/retail/domain"
	"gorm.io/gorm"
)

const (
	WalkInCustomerPhone = "0000000000"
	SampleProductCode   = "10000001"
	defaultCurrencyCode = "USD"
)

func (s *Seeder) seedAccounts(tx *gorm.DB) error {
	return tx.Create(&retaildomain.Account{
		ID:        s.node.Generate(),
		AccountNo: "11111",
		Name:      "Sales Account",
		IsDefault: true,
		IsActive:  true,
	}).Error
}

func (s *Seeder) seedWarehouses(tx *gorm.DB) error {
	return tx.Create(&retaildomain.Warehouse{
		ID:       s.node.Generate(),
		Name:     "Main Warehouse",
		IsActive: true,
	}).Error
}

func (s *Seeder) seedBillers(tx *gorm.DB, data Data) error {
	company := data.CompanyName
	if company == "" {
		company = data.SiteTitle
	}
	return tx.Create(&retaildomain.Biller{
		ID:          s.node.Generate(),
		Name:        data.Name,
		CompanyName: company,
		Email:       data.Email,
		PhoneNumber: data.PhoneNumber,
		IsActive:    true,
	}).Error
}

func (s *Seeder) seedCustomerGroups(tx *gorm.DB) error {
	return tx.Create(&retaildomain.CustomerGroup{
		ID:       s.node.Generate(),
		Name:     "General",
		IsActive: true,
	}).Error
}

func (s *Seeder) seedCustomers(tx *gorm.DB) error {
	var group retaildomain.CustomerGroup
	var groupID *snowflake.ID
	if err := tx.Where("name = ?", "General").Limit(1).Find(&group).Error; err != nil {
		return err
	}
	if group.ID != 0 {
		groupID = &group.ID
	}
	return tx.Create(&retaildomain.Customer{
		ID:              s.node.Generate(),
		CustomerGroupID: groupID,
		Name:            "walk-in-customer",
		PhoneNumber:     WalkInCustomerPhone,
		IsActive:        true,
	}).Error
}

// seedDiscountPlans creates the generic plan and enrolls every existing
// customer in it.
func (s *Seeder) seedDiscountPlans(tx *gorm.DB) error {
	plan := retaildomain.DiscountPlan{
		ID:       s.node.Generate(),
		Name:     "General Discount",
		Type:     retaildomain.DiscountPlanGeneric,
		IsActive: true,
	}
	if err := tx.Create(&plan).Error; err != nil {
		return err
	}

	var customerIDs []snowflake.ID
	if err := tx.Model(&retaildomain.Customer{}).Pluck("id", &customerIDs).Error; err != nil {
		return err
	}
	if len(customerIDs) == 0 {
		return nil
	}
	links := make([]retaildomain.DiscountPlanCustomer, 0, len(customerIDs))
	for _, id := range customerIDs {
		links = append(links, retaildomain.DiscountPlanCustomer{DiscountPlanID: plan.ID, CustomerID: id})
	}
	return tx.Create(&links).Error
}

func (s *Seeder) seedCurrencies(tx *gorm.DB, data Data) error {
	code := strings.ToUpper(strings.TrimSpace(data.Currency))
	if code == "" {
		code = defaultCurrencyCode
	}
	return tx.Create(&retaildomain.Currency{
		ID:           s.node.Generate(),
		Name:         code,
		Code:         code,
		ExchangeRate: 1,
		IsActive:     true,
	}).Error
}

func (s *Seeder) seedUnits(tx *gorm.DB) error {
	piece := retaildomain.Unit{
		ID:       s.node.Generate(),
		UnitCode: "pc",
		UnitName: "Piece",
		IsActive: true,
	}
	if err := tx.Create(&piece).Error; err != nil {
		return err
	}
	op := "*"
	value := 12.0
	return tx.Create(&retaildomain.Unit{
		ID:             s.node.Generate(),
		UnitCode:       "dz",
		UnitName:       "Dozen",
		BaseUnit:       &piece.ID,
		Operator:       &op,
		OperationValue: &value,
		IsActive:       true,
	}).Error
}

func (s *Seeder) seedTaxes(tx *gorm.DB) error {
	return tx.Create(&retaildomain.Tax{
		ID:       s.node.Generate(),
		Name:     "VAT 10%",
		Rate:     10,
		IsActive: true,
	}).Error
}

func (s *Seeder) seedBrands(tx *gorm.DB) error {
	return tx.Create(&retaildomain.Brand{
		ID:       s.node.Generate(),
		Title:    "Generic",
		IsActive: true,
	}).Error
}

func (s *Seeder) seedCategories(tx *gorm.DB) error {
	return tx.Create(&retaildomain.Category{
		ID:       s.node.Generate(),
		Name:     "General",
		IsActive: true,
	}).Error
}

// seedProducts adds one sample product wired to the seeded brand, category
// and base unit.
func (s *Seeder) seedProducts(tx *gorm.DB) error {
	var (
		brand    retaildomain.Brand
		category retaildomain.Category
		unit     retaildomain.Unit
	)
	if err := tx.Order("created_at ASC").Limit(1).Find(&brand).Error; err != nil {
		return err
	}
	if err := tx.Order("created_at ASC").Limit(1).Find(&category).Error; err != nil {
		return err
	}
	if err := tx.Where("base_unit IS NULL").Order("created_at ASC").Limit(1).Find(&unit).Error; err != nil {
		return err
	}
	if category.ID == 0 || unit.ID == 0 {
		s.log.Warn("sample product skipped, catalog base records missing")
		return nil
	}

	product := retaildomain.Product{
		ID:             s.node.Generate(),
		Name:           "Sample Product",
		Code:           SampleProductCode,
		Type:           retaildomain.ProductTypeStandard,
		BarcodeSymbol:  "C128",
		CategoryID:     category.ID,
		UnitID:         unit.ID,
		PurchaseUnitID: unit.ID,
		SaleUnitID:     unit.ID,
		Cost:           5,
		Price:          10,
		TaxMethod:      1,
		IsActive:       true,
	}
	if brand.ID != 0 {
		product.BrandID = &brand.ID
	}
	return tx.Create(&product).Error
}

func (s *Seeder) seedDepartments(tx *gorm.DB) error {
	return tx.Create(&retaildomain.Department{
		ID:       s.node.Generate(),
		Name:     "Sales",
		IsActive: true,
	}).Error
}

// seedEmployees registers the tenant owner as the first employee.
func (s *Seeder) seedEmployees(tx *gorm.DB, data Data) error {
	var dept retaildomain.Department
	if err := tx.Order("created_at ASC").Limit(1).Find(&dept).Error; err != nil {
		return err
	}
	if dept.ID == 0 {
		return nil
	}
	return tx.Create(&retaildomain.Employee{
		ID:           s.node.Generate(),
		Name:         data.Name,
		Email:        data.Email,
		PhoneNumber:  data.PhoneNumber,
		DepartmentID: dept.ID,
		StaffID:      "EMP-0001",
		IsActive:     true,
	}).Error
}

var defaultCountries = []retaildomain.Country{
	{Name: "United States", ISO2: "US", ISO3: "USA", PhoneCode: "1"},
	{Name: "United Kingdom", ISO2: "GB", ISO3: "GBR", PhoneCode: "44"},
	{Name: "Indonesia", ISO2: "ID", ISO3: "IDN", PhoneCode: "62"},
	{Name: "Bangladesh", ISO2: "BD", ISO3: "BGD", PhoneCode: "880"},
}

func (s *Seeder) seedCountries(tx *gorm.DB) error {
	rows := make([]retaildomain.Country, len(defaultCountries))
	copy(rows, defaultCountries)
	for i := range rows {
		rows[i].ID = s.node.Generate()
	}
	return tx.Create(&rows).Error
}

func (s *Seeder) seedStates(tx *gorm.DB) error {
	var us retaildomain.Country
	if err := tx.Where("iso2 = ?", "US").Limit(1).Find(&us).Error; err != nil {
		return err
	}
	if us.ID == 0 {
		return nil
	}
	return tx.Create(&[]retaildomain.State{
		{ID: s.node.Generate(), CountryID: us.ID, Name: "California", StateCode: "CA"},
		{ID: s.node.Generate(), CountryID: us.ID, Name: "New York", StateCode: "NY"},
	}).Error
}

func (s *Seeder) seedCities(tx *gorm.DB) error {
	var states []retaildomain.State
	if err := tx.Where("state_code IN ?", []string{"CA", "NY"}).Find(&states).Error; err != nil {
		return err
	}
	names := map[string]string{"CA": "Los Angeles", "NY": "New York"}
	rows := make([]retaildomain.City, 0, len(states))
	for i := range states {
		st := states[i]
		rows = append(rows, retaildomain.City{
			ID:        s.node.Generate(),
			CountryID: st.CountryID,
			StateID:   &st.ID,
			Name:      names[st.StateCode],
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}
