package rbac

// Default policy. Students work their own sessions; teachers manage the key.
var RolePermissions = map[string][]string{
	"student": {
		"section:view",
		"session:create",
		"session:save",
		"session:grade",
		"session:view-own",
	},
	"teacher": {
		"section:view",
		"session:*",
		"answers:reveal",
		"answerkey:view",
		"answerkey:upload",
	},
	"admin": {
		"*", // everything
	},
}
