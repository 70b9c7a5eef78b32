package sqlassets

import _ "embed"

//go:embed schema/admin/plans.sql
var PlansSQL string

//go:embed schema/admin/tenants.sql
var TenantsSQL string

//go:embed schema/admin/audit_log.sql
var AuditLogSQL string

//go:embed schema/clinic/users.sql
var UsersSQL string

//go:embed schema/clinic/owners.sql
var OwnersSQL string

//go:embed schema/clinic/patients.sql
var PatientsSQL string

//go:embed schema/clinic/attachments.sql
var AttachmentsSQL string
