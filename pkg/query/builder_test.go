package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectBuilder(t *testing.T) {
	q := From("crm_pipelines").
		Select([]string{"id", "name"}).
		WhereEq("organization_id", "org1").
		WhereEq("id", "p1").
		OrderBy("created_at", "ASC").
		Limit(1).
		ForUpdate(true).
		Build()

	assert.Equal(t, "SELECT `id`, `name` FROM `crm_pipelines` WHERE `organization_id` = ? AND `id` = ? ORDER BY `created_at` ASC LIMIT 1 FOR UPDATE", q.SQL)
	assert.Equal(t, []interface{}{"org1", "p1"}, q.Params)
}

func TestSelectWithoutLock(t *testing.T) {
	q := From("crm_deals").Select([]string{"*"}).ForUpdate(false).Build()
	assert.Equal(t, "SELECT * FROM `crm_deals`", q.SQL)
	assert.Empty(t, q.Params)
}

func TestInsertBuilderIsOrdered(t *testing.T) {
	q := Insert("crm_groups", map[string]interface{}{
		"name":            "Leads",
		"id":              "g1",
		"organization_id": "org1",
	}).Build()

	assert.Equal(t, "INSERT INTO `crm_groups` (`id`, `name`, `organization_id`) VALUES (?, ?, ?)", q.SQL)
	assert.Equal(t, []interface{}{"g1", "Leads", "org1"}, q.Params)
}

func TestUpdateBuilderWithRawSet(t *testing.T) {
	q := Update("crm_pipelines").
		Set(map[string]interface{}{"stages": "[]", "name": "Sales"}).
		SetRaw("`version` = `version` + 1").
		WhereEq("id", "p1").
		WhereEq("version", int64(3)).
		Build()

	assert.Equal(t, "UPDATE `crm_pipelines` SET `name` = ?, `stages` = ?, `version` = `version` + 1 WHERE `id` = ? AND `version` = ?", q.SQL)
	assert.Equal(t, []interface{}{"Sales", "[]", "p1", int64(3)}, q.Params)
}

func TestDeleteBuilder(t *testing.T) {
	q := Delete("crm_views").WhereEq("id", "v1").Build()
	assert.Equal(t, "DELETE FROM `crm_views` WHERE `id` = ?", q.SQL)
	assert.Equal(t, []interface{}{"v1"}, q.Params)
}
