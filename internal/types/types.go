package types

// EmployeeRecord is the loosely-typed attribute mapping describing one
// employee at prediction time. It is assembled by the surrounding HR
// application from whatever source it has; any field may be absent, nil,
// wrong-typed, or wrapped in a single-element list. The prediction engine
// treats it as read-only.
type EmployeeRecord map[string]interface{}
