package mapper

import (
	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/model"
)

type AccountMapper struct{}

func NewAccountMapper() *AccountMapper {
	return &AccountMapper{}
}

func (m *AccountMapper) ToEntity(a *model.Account) *entity.Account {
	if a == nil {
		return nil
	}
	return &entity.Account{
		Id:                 a.Id,
		Email:              a.Email,
		FullName:           a.FullName,
		CustomerId:         a.CustomerId,
		Role:               entity.Role(a.Role),
		SubscriptionStatus: entity.AccountSubscriptionStatus(a.SubscriptionStatus),
		SubscriptionId:     a.SubscriptionId,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func (m *AccountMapper) ToModel(a *entity.Account) *model.Account {
	if a == nil {
		return nil
	}
	return &model.Account{
		Id:                 a.Id,
		Email:              a.Email,
		FullName:           a.FullName,
		CustomerId:         a.CustomerId,
		Role:               string(a.Role),
		SubscriptionStatus: string(a.SubscriptionStatus),
		SubscriptionId:     a.SubscriptionId,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}
