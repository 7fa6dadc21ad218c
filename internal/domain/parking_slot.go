package domain

import (
	"gopkg.in/guregu/null.v4"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "Available"
	SlotOccupied  SlotStatus = "Occupied"
)

// ParkingSlot là một chỗ đỗ vật lý. Bất biến: status = Occupied khi và chỉ
// khi occupied_by và occupied_at cùng khác NULL.
type ParkingSlot struct {
	ID         int        `json:"id"`
	SlotNumber int        `json:"slot_number"`
	Status     SlotStatus `json:"status"`
	OccupiedBy null.Int   `json:"occupied_by"`
	OccupiedAt null.Time  `json:"occupied_at"`
}

// SlotStatusNotification được gửi đến frontend qua WebSocket mỗi khi một chỗ
// đỗ được cấp phát, giải phóng hoặc thu hồi.
type SlotStatusNotification struct {
	SlotNumber int        `json:"slot_number"`
	Status     SlotStatus `json:"status"`
	Source     string     `json:"source"` // "entry", "exit", "reclaim"
}

// AdminSlotView là dòng hiển thị trên bảng quản trị: chỗ đỗ kèm thông tin
// người đang đỗ (nếu có).
type AdminSlotView struct {
	ID         int        `json:"id"`
	SlotNumber int        `json:"slot_number"`
	Status     SlotStatus `json:"status"`
	OccupiedAt null.Time  `json:"occupied_at"`
	UserName   string     `json:"user_name,omitempty"`
	CarNumber  string     `json:"car_number,omitempty"`
}
