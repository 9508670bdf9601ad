// Пакет rbac — статическая политика доступа PAVIAN Registry.
// Одна таблица (роль, ключ ресурса) → allow/deny используется и сервером
// (middleware RequireCapability), и клиентом (route guard, навигация, кнопки).
// Запрет — обычное возвращаемое значение, не ошибка.
package rbac

// Роли пользователей.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleUser   = "user"
)

// Ключи ресурсов: view:* — экраны, action:* — действия.
const (
	ViewDashboard       = "view:dashboard"
	ViewProducts        = "view:products"
	ViewProductDetail   = "view:product-detail"
	ActionCreateProduct = "action:create-product"
	ActionEditProduct   = "action:edit-product"
	ActionDeleteProduct = "action:delete-product"
	ViewAdminUsers      = "view:admin-users"
	ActionApproveUser   = "action:approve-user"
	ViewAdminCodes      = "view:admin-codes"
	ActionGenerateCode  = "action:generate-code"
	ViewAuditLogs       = "view:audit-logs"
)

// policy — ключ ресурса → множество ролей, которым он разрешён.
var policy = map[string]map[string]bool{
	ViewDashboard:       {RoleAdmin: true, RoleEditor: true, RoleUser: true},
	ViewProducts:        {RoleAdmin: true, RoleEditor: true, RoleUser: true},
	ViewProductDetail:   {RoleAdmin: true, RoleEditor: true, RoleUser: true},
	ActionCreateProduct: {RoleAdmin: true, RoleEditor: true},
	ActionEditProduct:   {RoleAdmin: true, RoleEditor: true},
	ActionDeleteProduct: {RoleAdmin: true, RoleEditor: true},
	ViewAdminUsers:      {RoleAdmin: true},
	ActionApproveUser:   {RoleAdmin: true},
	ViewAdminCodes:      {RoleAdmin: true},
	ActionGenerateCode:  {RoleAdmin: true},
	ViewAuditLogs:       {RoleAdmin: true, RoleEditor: true},
}

// roles — допустимые роли в порядке убывания привилегий.
var roles = []string{RoleAdmin, RoleEditor, RoleUser}

// CanAccess — разрешён ли ресурс key для роли role.
// Неизвестная роль или ключ → false.
func CanAccess(role, key string) bool {
	return policy[key][role]
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Roles возвращает копию списка допустимых ролей.
func Roles() []string {
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

// Keys возвращает все ключи ресурсов таблицы.
func Keys() []string {
	keys := make([]string, 0, len(policy))
	for k := range policy {
		keys = append(keys, k)
	}
	return keys
}

// NavItem — пункт навигации приложения.
type NavItem struct {
	Path  string
	Label string
	Key   string
}

// navItems — навигация в порядке отображения.
var navItems = []NavItem{
	{Path: "/dashboard", Label: "Dashboard", Key: ViewDashboard},
	{Path: "/products", Label: "Produtos", Key: ViewProducts},
	{Path: "/admin/users", Label: "Usuários", Key: ViewAdminUsers},
	{Path: "/admin/codes", Label: "Códigos", Key: ViewAdminCodes},
	{Path: "/audit", Label: "Histórico", Key: ViewAuditLogs},
}

// VisibleNav возвращает пункты навигации, доступные роли.
func VisibleNav(role string) []NavItem {
	var out []NavItem
	for _, item := range navItems {
		if CanAccess(role, item.Key) {
			out = append(out, item)
		}
	}
	return out
}
