package rbac

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// RolePermissions is the default policy. A trailing "*" matches any suffix.
var RolePermissions = map[string][]string{
	RoleStudent: {
		"question:view",
		"quiz:view",
		"practice:*",
		"report:view-own",
		"student:view-own",
		"student:update-own",
	},
	RoleTeacher: {
		"question:*",
		"quiz:*",
		"report:*",
		"student:view-all",
		"teacher:view-all",
		"teacher:update-own",
		"event:view",
	},
	RoleAdmin: {
		"*",
	},
}
