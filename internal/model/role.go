package model

// Role 平台内的封闭角色集合，取代按字符串随意比较的做法
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

// HasRole 判断 Token 中携带的角色列表是否包含指定角色
func HasRole(roles []string, target Role) bool {
	for _, r := range roles {
		if r == string(target) {
			return true
		}
	}
	return false
}
