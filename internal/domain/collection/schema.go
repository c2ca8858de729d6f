package collection

// Kind - тип значения поля.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindTime
	KindID
	KindStringList
	KindIDList
	KindObject
	KindList
)

// Field - правило для одного поля сущности.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Enum     []string
	MaxLen   int
	Min      *float64
	Max      *float64
	Pattern  string
	Nullable bool
}

func num(v float64) *float64 { return &v }

var (
	zoneTypes        = []string{"green", "fairway", "rough", "bunker", "teebox", "water", "path", "building", "other"}
	zoneHealth       = []string{"excellent", "good", "fair", "poor", "critical"}
	taskTypes        = []string{"mowing", "watering", "fertilizing", "aeration", "topdressing", "pest_treatment", "seeding", "repair", "inspection", "other"}
	taskPriorities   = []string{"low", "medium", "high", "urgent"}
	taskStatuses     = []string{"pending", "in_progress", "completed", "cancelled", "deferred"}
	recurrence       = []string{"daily", "weekly", "biweekly", "monthly", "custom"}
	equipCategories  = []string{"mower", "tractor", "sprayer", "aerator", "roller", "utility_vehicle", "hand_tool", "irrigation", "other"}
	equipStatuses    = []string{"available", "in_use", "maintenance", "broken", "retired"}
	stockCategories  = []string{"seed", "fertilizer", "pesticide", "fungicide", "herbicide", "fuel", "spare_part", "sand", "soil", "other"}
	stockUnits       = []string{"kg", "L", "unit", "m3", "bag"}
	clockTimePattern = `^\d{2}:\d{2}$`
)

var zoneSpec = Spec{
	Name:  Zones,
	Table: "zones",
	Fields: []Field{
		{Name: "name", Kind: KindString, Required: true, MaxLen: 200},
		{Name: "type", Kind: KindString, Required: true, Enum: zoneTypes},
		{Name: "holeNumber", Kind: KindNumber, Min: num(1), Max: num(36), Nullable: true},
		{Name: "area", Kind: KindNumber, Min: num(0), Nullable: true},
		{Name: "geometry", Kind: KindObject, Nullable: true},
		{Name: "health", Kind: KindString, Enum: zoneHealth},
		{Name: "grassType", Kind: KindString, MaxLen: 100, Nullable: true},
		{Name: "notes", Kind: KindString, MaxLen: 2000},
		{Name: "lastMaintenanceAt", Kind: KindTime, Nullable: true},
		{Name: "isActive", Kind: KindBool},
	},
}

var taskSpec = Spec{
	Name:  Tasks,
	Table: "tasks",
	Fields: []Field{
		{Name: "title", Kind: KindString, Required: true, MaxLen: 300},
		{Name: "description", Kind: KindString, MaxLen: 5000},
		{Name: "type", Kind: KindString, Required: true, Enum: taskTypes},
		{Name: "priority", Kind: KindString, Enum: taskPriorities},
		{Name: "status", Kind: KindString, Enum: taskStatuses},
		{Name: "zoneId", Kind: KindID, Nullable: true},
		{Name: "assigneeIds", Kind: KindIDList},
		{Name: "scheduledDate", Kind: KindTime, Required: true},
		{Name: "scheduledTime", Kind: KindString, Pattern: clockTimePattern, Nullable: true},
		{Name: "estimatedDuration", Kind: KindNumber, Min: num(0), Nullable: true},
		{Name: "actualDuration", Kind: KindNumber, Min: num(0), Nullable: true},
		{Name: "completedAt", Kind: KindTime, Nullable: true},
		{Name: "completedBy", Kind: KindID, Nullable: true},
		{Name: "recurrence", Kind: KindString, Enum: recurrence, Nullable: true},
		{Name: "notes", Kind: KindString, MaxLen: 2000},
	},
}

var teamMemberSpec = Spec{
	Name:  TeamMembers,
	Table: "team_members",
	Fields: []Field{
		{Name: "userId", Kind: KindID, Required: true},
		{Name: "position", Kind: KindString, MaxLen: 200},
		{Name: "phone", Kind: KindString, Pattern: `^\+?[1-9]\d{1,14}$`, Nullable: true},
		{Name: "skills", Kind: KindStringList, MaxLen: 100},
		{Name: "certifications", Kind: KindList},
		{Name: "availability", Kind: KindObject, Nullable: true},
		{Name: "isActive", Kind: KindBool},
	},
}

var equipmentSpec = Spec{
	Name:  Equipment,
	Table: "equipment",
	Fields: []Field{
		{Name: "name", Kind: KindString, Required: true, MaxLen: 200},
		{Name: "category", Kind: KindString, Required: true, Enum: equipCategories},
		{Name: "brand", Kind: KindString, MaxLen: 100},
		{Name: "model", Kind: KindString, MaxLen: 100},
		{Name: "serialNumber", Kind: KindString, MaxLen: 100},
		{Name: "purchaseDate", Kind: KindTime, Nullable: true},
		{Name: "lastServiceDate", Kind: KindTime, Nullable: true},
		{Name: "nextServiceDate", Kind: KindTime, Nullable: true},
		{Name: "hoursUsed", Kind: KindNumber, Min: num(0)},
		{Name: "status", Kind: KindString, Enum: equipStatuses},
		{Name: "location", Kind: KindString, MaxLen: 200},
		{Name: "notes", Kind: KindString, MaxLen: 2000},
		{Name: "isActive", Kind: KindBool},
	},
}

var inventoryItemSpec = Spec{
	Name:  InventoryItems,
	Table: "inventory_items",
	Fields: []Field{
		{Name: "name", Kind: KindString, Required: true, MaxLen: 200},
		{Name: "category", Kind: KindString, Required: true, Enum: stockCategories},
		{Name: "unit", Kind: KindString, Required: true, Enum: stockUnits},
		{Name: "currentStock", Kind: KindNumber, Min: num(0)},
		{Name: "minStock", Kind: KindNumber, Min: num(0)},
		{Name: "maxStock", Kind: KindNumber, Min: num(0), Nullable: true},
		{Name: "location", Kind: KindString, MaxLen: 200},
		{Name: "supplier", Kind: KindString, MaxLen: 200},
		{Name: "unitCost", Kind: KindNumber, Min: num(0), Nullable: true},
		{Name: "safetyDataSheet", Kind: KindString, Nullable: true},
		{Name: "expirationDate", Kind: KindTime, Nullable: true},
		{Name: "isActive", Kind: KindBool},
	},
}
