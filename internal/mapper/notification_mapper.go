package mapper

import (
	"encoding/json"

	"billing-sync-be/internal/entity"
	"billing-sync-be/internal/model"

	"gorm.io/datatypes"
)

type NotificationMapper struct{}

func NewNotificationMapper() *NotificationMapper {
	return &NotificationMapper{}
}

func (m *NotificationMapper) ToEntity(n *model.NotificationQueueItem) *entity.NotificationQueueItem {
	if n == nil {
		return nil
	}
	return &entity.NotificationQueueItem{
		Id:          n.Id,
		AccountId:   n.AccountId,
		Recipient:   n.Recipient,
		Kind:        entity.NotificationKind(n.Kind),
		DedupeKey:   n.DedupeKey,
		Payload:     decodePayload(n.Payload),
		Subject:     n.Subject,
		Status:      entity.NotificationStatus(n.Status),
		Attempts:    n.Attempts,
		MaxAttempts: n.MaxAttempts,
		LastError:   n.LastError,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
		SentAt:      n.SentAt,
	}
}

func (m *NotificationMapper) ToModel(n *entity.NotificationQueueItem) (*model.NotificationQueueItem, error) {
	if n == nil {
		return nil, nil
	}
	payload, err := encodePayload(n.Payload)
	if err != nil {
		return nil, err
	}
	return &model.NotificationQueueItem{
		Id:          n.Id,
		AccountId:   n.AccountId,
		Recipient:   n.Recipient,
		Kind:        string(n.Kind),
		DedupeKey:   n.DedupeKey,
		Payload:     payload,
		Subject:     n.Subject,
		Status:      string(n.Status),
		Attempts:    n.Attempts,
		MaxAttempts: n.MaxAttempts,
		LastError:   n.LastError,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
		SentAt:      n.SentAt,
	}, nil
}

func (m *NotificationMapper) OutboxToEntity(o *model.OutboxEvent) *entity.OutboxEvent {
	if o == nil {
		return nil
	}
	return &entity.OutboxEvent{
		Id:          o.Id,
		EventType:   o.EventType,
		AccountId:   o.AccountId,
		Payload:     decodePayload(o.Payload),
		Attempts:    o.Attempts,
		LastError:   o.LastError,
		ProcessedAt: o.ProcessedAt,
		CreatedAt:   o.CreatedAt,
	}
}

func (m *NotificationMapper) OutboxToModel(o *entity.OutboxEvent) (*model.OutboxEvent, error) {
	if o == nil {
		return nil, nil
	}
	payload, err := encodePayload(o.Payload)
	if err != nil {
		return nil, err
	}
	return &model.OutboxEvent{
		Id:          o.Id,
		EventType:   o.EventType,
		AccountId:   o.AccountId,
		Payload:     payload,
		Attempts:    o.Attempts,
		LastError:   o.LastError,
		ProcessedAt: o.ProcessedAt,
		CreatedAt:   o.CreatedAt,
	}, nil
}

func encodePayload(p map[string]interface{}) (datatypes.JSON, error) {
	if p == nil {
		return datatypes.JSON("{}"), nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// Malformed payloads decode to an empty map; the renderer reports missing fields.
func decodePayload(raw datatypes.JSON) map[string]interface{} {
	out := map[string]interface{}{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}
