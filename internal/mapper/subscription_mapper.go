package mapper

import (
	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/model"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) ToEntity(s *model.SubscriptionRecord) *entity.SubscriptionRecord {
	if s == nil {
		return nil
	}
	return &entity.SubscriptionRecord{
		Id:                 s.Id,
		SubscriptionId:     s.SubscriptionId,
		AccountId:          s.AccountId,
		CustomerId:         s.CustomerId,
		PriceId:            s.PriceId,
		PlanInterval:       entity.PlanInterval(s.PlanInterval),
		Status:             entity.SubscriptionStatus(s.Status),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) ToModel(s *entity.SubscriptionRecord) *model.SubscriptionRecord {
	if s == nil {
		return nil
	}
	return &model.SubscriptionRecord{
		Id:                 s.Id,
		SubscriptionId:     s.SubscriptionId,
		AccountId:          s.AccountId,
		CustomerId:         s.CustomerId,
		PriceId:            s.PriceId,
		PlanInterval:       string(s.PlanInterval),
		Status:             string(s.Status),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}
