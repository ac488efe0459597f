package services

import (
	"fmt"
	"strings"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/constants"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/utils"
)

// Patch is a caller supplied set of field changes decoded from JSON.
// Unknown keys are ignored.
type Patch map[string]interface{}

func (p Patch) str(key string, dst *string) {
	if v, ok := p[key]; ok {
		*dst = strings.TrimSpace(utils.ToString(v))
	}
}

// ref sets an optional foreign key; null or "" clears it
func (p Patch) ref(key string, dst **string) {
	v, ok := p[key]
	if !ok {
		return
	}
	s := strings.TrimSpace(utils.ToString(v))
	if s == "" {
		*dst = nil
		return
	}
	*dst = &s
}

func (p Patch) list(key string, dst *[]string) error {
	v, ok := p[key]
	if !ok {
		return nil
	}
	switch items := v.(type) {
	case nil:
		*dst = []string{}
	case []string:
		*dst = append([]string{}, items...)
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, it := range items {
			if s := utils.ToString(it); s != "" {
				out = append(out, s)
			}
		}
		*dst = out
	case string:
		*dst = []string{items}
	default:
		return errors.NewValidationError(key, fmt.Sprintf("expected a list, got %T", v))
	}
	return nil
}

func (p Patch) object(key string) (map[string]interface{}, bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false, nil
	}
	obj, isObj := v.(map[string]interface{})
	if !isObj {
		return nil, false, errors.NewValidationError(key, "expected an object")
	}
	return obj, true, nil
}

// mergeCustomFields applies the custom_fields key of the patch, if any
func (p Patch) mergeCustomFields(dst *models.CustomFields) error {
	incoming, ok, err := p.object(constants.FieldCustomFields)
	if err != nil || !ok {
		return err
	}
	*dst = dst.Merge(incoming)
	return nil
}

func (p Patch) applyPeople(r *models.People) error {
	p.str(constants.FieldFullName, &r.FullName)
	p.str(constants.FieldJobTitle, &r.JobTitle)
	p.ref(constants.FieldCompanyID, &r.CompanyID)
	for key, dst := range map[string]*[]string{
		constants.FieldEmails: &r.Emails,
		constants.FieldPhones: &r.Phones,
		constants.FieldTags:   &r.Tags,
	} {
		if err := p.list(key, dst); err != nil {
			return err
		}
	}
	return p.mergeCustomFields(&r.CustomFields)
}

func (p Patch) applyCompany(r *models.Company) error {
	p.str(constants.FieldName, &r.Name)
	p.str(constants.FieldDomain, &r.Domain)
	p.str(constants.FieldWebsite, &r.Website)
	p.str(constants.FieldIndustry, &r.Industry)
	p.str(constants.FieldSize, &r.Size)
	p.str(constants.FieldLocation, &r.Location)
	if err := p.list(constants.FieldTags, &r.Tags); err != nil {
		return err
	}
	return p.mergeCustomFields(&r.CustomFields)
}

func (p Patch) applyDeal(r *models.Deal) error {
	p.str(constants.FieldTitle, &r.Title)
	p.str(constants.FieldStatus, &r.Status)
	p.ref(constants.FieldContactID, &r.ContactID)
	p.ref(constants.FieldCompanyID, &r.CompanyID)
	if err := p.list(constants.FieldTags, &r.Tags); err != nil {
		return err
	}
	return p.mergeCustomFields(&r.CustomFields)
}

// applyCustomer shallow merges custom_data; customers carry no descriptors
func (p Patch) applyCustomer(r *models.Customer) error {
	p.str(constants.FieldEmail, &r.Email)
	data, ok, err := p.object(constants.FieldCustomData)
	if err != nil || !ok {
		return err
	}
	r.CustomData = r.CustomData.ShallowMerge(data)
	return nil
}
