package warehouse

// Star schema of the Fourth Coffee warehouse. Types are PostgreSQL types
// and must agree with sql/create-data-warehouse.sql.

// DimDate is the calendar dimension.
var DimDate = TableSpec{
	Name:        "DimDate",
	CSVFile:     "DimDate.csv",
	Order:       10,
	Description: "Calendar dimension keyed by YYYYMMDD",
	Columns: []ColumnSpec{
		{Name: "DateKey", SQLType: "int", Required: true, Convert: ToInt},
		{Name: "FullDate", SQLType: "date", Required: true, Convert: ToDate},
		{Name: "DayOfWeek", SQLType: "int", Convert: ToInt},
		{Name: "DayName", SQLType: "varchar(10)"},
		{Name: "MonthNumber", SQLType: "int", Convert: ToInt},
		{Name: "MonthName", SQLType: "varchar(10)"},
		{Name: "Quarter", SQLType: "int", Convert: ToInt},
		{Name: "Year", SQLType: "int", Convert: ToInt, SQLNameOverride: `"year"`},
		{Name: "IsWeekend", SQLType: "boolean", Convert: ToBool},
		{Name: "IsHoliday", SQLType: "boolean", Convert: ToBool},
	},
}

// DimTime is the time-of-day dimension.
var DimTime = TableSpec{
	Name:        "DimTime",
	CSVFile:     "DimTime.csv",
	Order:       20,
	Description: "Time-of-day dimension keyed by HHMMSS",
	Columns: []ColumnSpec{
		{Name: "TimeKey", SQLType: "int", Required: true, Convert: ToInt},
		{Name: "FullTime", SQLType: "time(3)", Required: true, Convert: ToTime},
		{Name: "Hour", SQLType: "int", Convert: ToInt},
		{Name: "Hour12", SQLType: "int", Convert: ToInt},
		{Name: "AMPM", SQLType: "varchar(2)"},
		{Name: "TimeOfDay", SQLType: "varchar(20)"},
		{Name: "BusinessPeriod", SQLType: "varchar(20)"},
	},
}

// DimShop is the shop dimension.
var DimShop = TableSpec{
	Name:        "DimShop",
	CSVFile:     "DimShop.csv",
	Order:       30,
	Description: "Shops and the airports they trade in",
	Columns: []ColumnSpec{
		{Name: "ShopKey", SQLType: "int", Required: true, Convert: ToInt},
		{Name: "ShopId", SQLType: "varchar(64)", Required: true},
		{Name: "ShopName", SQLType: "varchar(128)"},
		{Name: "AirportId", SQLType: "varchar(32)"},
		{Name: "AirportName", SQLType: "varchar(128)"},
		{Name: "Terminal", SQLType: "varchar(64)"},
		{Name: "Timezone", SQLType: "varchar(64)"},
		{Name: "IsActive", SQLType: "boolean", Convert: ToBool},
		{Name: "CreatedAt", SQLType: "timestamp(3)", Convert: ToDateTime},
		{Name: "UpdatedAt", SQLType: "timestamp(3)", Convert: ToDateTime},
	},
}

// DimMenuItem is loaded from DimMenu.csv, which uses lowercase headers,
// carries extra columns and repeats items once per size.
var DimMenuItem = TableSpec{
	Name:        "DimMenuItem",
	CSVFile:     "DimMenu.csv",
	DedupeKey:   "menuItemKey",
	Order:       40,
	Description: "Menu items, one row per item",
	Columns: []ColumnSpec{
		{Name: "MenuItemKey", SQLType: "int", CSVName: "menuItemKey", Required: true, Convert: ToInt},
		{Name: "MenuItemId", SQLType: "varchar(64)", CSVName: "menuItemId", Required: true},
		{Name: "MenuItemName", SQLType: "varchar(128)", CSVName: "menuItemName"},
		{Name: "Category", SQLType: "varchar(64)", CSVName: "category"},
		{Name: "Price", SQLType: "numeric(10,2)", CSVName: "price", Convert: ToDecimal},
		{Name: "IsRecommended", SQLType: "boolean", Convert: ToNull},
		{Name: "Calories", SQLType: "int", Convert: ToNull},
		{Name: "IsActive", SQLType: "boolean", CSVName: "isActive", Convert: ToBool},
		{Name: "CreatedAt", SQLType: "timestamp(3)", CSVName: "createdAt", Convert: ToDateTime},
		{Name: "UpdatedAt", SQLType: "timestamp(3)", CSVName: "updatedAt", Convert: ToDateTime},
	},
}

// DimCustomer is the customer dimension.
var DimCustomer = TableSpec{
	Name:        "DimCustomer",
	CSVFile:     "DimCustomer.csv",
	Order:       50,
	Description: "Loyalty customers",
	Columns: []ColumnSpec{
		{Name: "CustomerKey", SQLType: "int", Required: true, Convert: ToInt},
		{Name: "CustomerId", SQLType: "varchar(64)", Required: true},
		{Name: "CustomerName", SQLType: "varchar(128)"},
		{Name: "Email", SQLType: "varchar(128)"},
		{Name: "PreferredAirport", SQLType: "varchar(32)"},
		{Name: "FavoriteDrink", SQLType: "varchar(32)"},
		{Name: "IsActive", SQLType: "boolean", Convert: ToBool},
		{Name: "CreatedAt", SQLType: "timestamp(3)", Convert: ToDateTime},
		{Name: "UpdatedAt", SQLType: "timestamp(3)", Convert: ToDateTime},
	},
}

// FactSales has one row per transaction.
var FactSales = TableSpec{
	Name:        "FactSales",
	CSVFile:     "FactSales.csv",
	Order:       60,
	Description: "Sales transactions",
	Columns: []ColumnSpec{
		{Name: "SalesKey", SQLType: "bigint", Required: true, Convert: ToLong},
		{Name: "TransactionId", SQLType: "varchar(64)", Required: true},
		{Name: "DateKey", SQLType: "int", Required: true, Convert: ToInt},
		{Name: "TimeKey", SQLType: "int", Required: true, Convert: ToInt},
		{Name: "CustomerKey", SQLType: "int", Required: true, Convert: ToInt},
		{Name: "ShopKey", SQLType: "int", Convert: ToInt},
		{Name: "TotalQuantity", SQLType: "int", Required: true, Convert: ToInt},
		{Name: "TotalAmount", SQLType: "numeric(10,2)", Required: true, Convert: ToDecimal},
		{Name: "PaymentMethod", SQLType: "varchar(32)"},
		{Name: "LoyaltyPointsEarned", SQLType: "int", Convert: ToInt},
		{Name: "LoyaltyPointsRedeemed", SQLType: "int", Convert: ToInt},
		{Name: "CreatedAt", SQLType: "timestamp(3)", Convert: ToDateTime},
	},
}

// FactSalesLineItems has one row per transaction line.
var FactSalesLineItems = TableSpec{
	Name:        "FactSalesLineItems",
	CSVFile:     "FactSalesLineItem.csv",
	Order:       70,
	Description: "Sales transaction lines",
	Columns: []ColumnSpec{
		{Name: "TransactionId", SQLType: "varchar(64)", Required: true},
		{Name: "SalesKey", SQLType: "bigint", Required: true, Convert: ToLong},
		{Name: "LineNumber", SQLType: "int", Required: true, Convert: ToInt},
		{Name: "DateKey", SQLType: "int", Required: true, Convert: ToInt},
		{Name: "TimeKey", SQLType: "int", Required: true, Convert: ToInt},
		{Name: "MenuItemKey", SQLType: "int", Required: true, Convert: ToInt},
		{Name: "Quantity", SQLType: "int", Required: true, Convert: ToInt},
		{Name: "UnitPrice", SQLType: "numeric(10,2)", Required: true, Convert: ToDecimal},
		{Name: "LineTotal", SQLType: "numeric(10,2)", Required: true, Convert: ToDecimal},
		{Name: "PaymentMethod", SQLType: "varchar(32)"},
		{Name: "Size", SQLType: "varchar(32)"},
		{Name: "CreatedAt", SQLType: "timestamp(3)", Convert: ToDateTime},
	},
}

func init() {
	for _, spec := range []TableSpec{
		DimDate, DimTime, DimShop, DimMenuItem, DimCustomer, FactSales, FactSalesLineItems,
	} {
		Register(spec)
	}
}
