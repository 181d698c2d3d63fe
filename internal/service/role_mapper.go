package service

import (
	"fmt"
	"strings"

	"billing-sync-be/internal/config"
	"billing-sync-be/internal/entity"
)

type pricePlan struct {
	role     entity.Role
	interval entity.PlanInterval
}

// RoleMapper resolves the entitlement role for a paid subscription. It is
// built once from configuration and never mutated.
type RoleMapper struct {
	prices map[string]pricePlan
}

func NewRoleMapper(table config.PriceTable) *RoleMapper {
	prices := make(map[string]pricePlan, 4)
	add := func(id string, role entity.Role, interval entity.PlanInterval) {
		if id = strings.TrimSpace(id); id != "" {
			prices[id] = pricePlan{role: role, interval: interval}
		}
	}
	add(table.StudentMonthly, entity.RoleStudent, entity.PlanIntervalMonthly)
	add(table.StudentYearly, entity.RoleStudent, entity.PlanIntervalYearly)
	add(table.TeacherMonthly, entity.RoleTeacher, entity.PlanIntervalMonthly)
	add(table.TeacherYearly, entity.RoleTeacher, entity.PlanIntervalYearly)
	return &RoleMapper{prices: prices}
}

// Resolve picks the role in this order: a plan hint naming a role, the price
// table, Student for any other paid price, Free when nothing was supplied.
func (m *RoleMapper) Resolve(planHint, priceId string) entity.Role {
	if role, ok := entity.ParseRole(planHint); ok && role != entity.RoleAdmin {
		return role
	}
	if plan, ok := m.prices[strings.TrimSpace(priceId)]; ok {
		return plan.role
	}
	if strings.TrimSpace(priceId) != "" || strings.TrimSpace(planHint) != "" {
		// An unrecognized paid price still grants the base tier.
		return entity.RoleStudent
	}
	return entity.RoleFree
}

func (m *RoleMapper) IsKnownPrice(priceId string) bool {
	_, ok := m.prices[strings.TrimSpace(priceId)]
	return ok
}

// PlanName is the display name used in notifications, e.g. "Teacher Monthly".
func (m *RoleMapper) PlanName(priceId string) string {
	plan, ok := m.prices[strings.TrimSpace(priceId)]
	if !ok {
		return "Premium"
	}
	interval := "Monthly"
	if plan.interval == entity.PlanIntervalYearly {
		interval = "Yearly"
	}
	return fmt.Sprintf("%s %s", plan.role, interval)
}
