package ldapquery

// AttributeSchema describes one configuration setting for presentation.
// Name doubles as the message id of the setting's label.
type AttributeSchema struct {
	Name     string
	Order    int
	Default  string
	Required bool
}

// Schema lists the settings of Config in presentation order.
func Schema() []AttributeSchema {
	return []AttributeSchema{
		{Name: "primaryServers", Order: 100, Required: true},
		{Name: "secondaryServers", Order: 200},
		{Name: "ldapConnectionMode", Order: 300, Default: ConnectionModeLDAP.String(), Required: true},
		{Name: "trustAllServerCertificates", Order: 400, Default: "false", Required: true},
		{Name: "accountSearchBaseDn", Order: 500, Required: true},
		{Name: "adminDn", Order: 600, Required: true},
		{Name: "adminPassword", Order: 700, Required: true},
		{Name: "searchFilterAttributes", Order: 800, Required: true},
		{Name: "userProfileAttribute", Order: 900, Required: true},
		{Name: "userSearchFilter", Order: 1000},
		{Name: "saveToSharedState", Order: 1100, Default: "false"},
		{Name: "attributesToSave", Order: 1200},
		{Name: "searchScope", Order: 1300, Default: SearchScopeSubtree.String(), Required: true},
		{Name: "heartbeatInterval", Order: 1400, Default: "10", Required: true},
		{Name: "heartbeatTimeUnit", Order: 1500, Default: HeartbeatSeconds.String(), Required: true},
		{Name: "ldapOperationsTimeout", Order: 1600, Default: "0", Required: true},
	}
}
