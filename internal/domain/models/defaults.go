package models

func descriptor(fieldType string, value interface{}) map[string]interface{} {
	return map[string]interface{}{"type": fieldType, "value": value, "isVisible": true}
}

// DefaultCustomFields returns the descriptor set seeded into new records of
// the given type. Caller supplied fields are merged over it.
func DefaultCustomFields(t EntityType) CustomFields {
	switch t {
	case EntityDeal:
		priority := descriptor("select", "Medium")
		priority["options"] = []interface{}{"Low", "Medium", "High", "Critical"}
		return CustomFields{
			"dealValue":      descriptor("number", 0),
			"priority":       priority,
			"probability":    descriptor("number", 0),
			"currency":       descriptor("text", "USD"),
			"source":         descriptor("text", ""),
			"lastActivityAt": descriptor("date", nil),
			"nextFollowupAt": descriptor("date", nil),
			"notes":          descriptor("textarea", ""),
			"createdAtField": descriptor("date", nil),
			"avatar":         descriptor("color", "#dbeafe"),
		}
	case EntityCompany:
		return CustomFields{
			"avatar":           descriptor("color", "#fee2e2"),
			"cFundingRaised":   descriptor("number", 0),
			"cLastFundingDate": descriptor("date", nil),
			"cFoundationDate":  descriptor("date", nil),
			"addresses":        descriptor("list", []interface{}{}),
			"urls":             descriptor("list", []interface{}{}),
			"notes":            descriptor("textarea", ""),
			"createdAtField":   descriptor("date", nil),
		}
	case EntityPeople:
		return CustomFields{
			"avatar":            descriptor("color", "#e0e7ff"),
			"pGender":           descriptor("select", ""),
			"pBirthday":         descriptor("date", nil),
			"totalInteractions": descriptor("number", 0),
			"lastInteraction":   descriptor("date", nil),
			"addresses":         descriptor("list", []interface{}{}),
			"urls":              descriptor("list", []interface{}{}),
			"notes":             descriptor("textarea", ""),
			"createdAtField":    descriptor("date", nil),
		}
	}
	return CustomFields{}
}
