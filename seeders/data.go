package seeders

import "inventory-system/pkg/constants"

var equipmentTypesData = []string{
	"Камера",
	"Объектив",
	"Штатив",
	"Микрофон",
	"Осветительный прибор",
}

var equipmentModelsData = []struct {
	Type     string
	Name     string
	PhotoRef string
}{
	{Type: "Камера", Name: "Canon EOS R6", PhotoRef: "models/canon-eos-r6.jpg"},
	{Type: "Камера", Name: "Sony FX3", PhotoRef: "models/sony-fx3.jpg"},
	{Type: "Объектив", Name: "Canon RF 24-70mm f/2.8"},
	{Type: "Штатив", Name: "Manfrotto 055"},
	{Type: "Микрофон", Name: "Rode NTG3"},
	{Type: "Осветительный прибор", Name: "Aputure 300d II"},
}

// Экземпляров на модель. Часть в ремонте, чтобы было что не считать.
var unitsPerModel = []struct {
	Ready       int
	UnderRepair int
}{
	{Ready: 3, UnderRepair: 1},
	{Ready: 2, UnderRepair: 0},
	{Ready: 4, UnderRepair: 1},
	{Ready: 5, UnderRepair: 0},
	{Ready: 2, UnderRepair: 1},
	{Ready: 3, UnderRepair: 0},
}

var usersData = []struct {
	Fio   string
	Email string
	Role  constants.Role
}{
	{Fio: "Администратор склада", Email: "admin@inventory.local", Role: constants.RoleAdmin},
	{Fio: "Преподаватель Тестовый", Email: "faculty@inventory.local", Role: constants.RoleFaculty},
	{Fio: "Студент Первый", Email: "student1@inventory.local", Role: constants.RoleStudent},
	{Fio: "Студент Второй", Email: "student2@inventory.local", Role: constants.RoleStudent},
}

// Пароль всех тестовых пользователей.
const defaultSeedPassword = "password123"
