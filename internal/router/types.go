// Package router is the Event Router (spec §4.9): it receives typed
// messages from the transport layer, validates them against room
// membership, translates them into Room Controller commands, and composes
// the resulting broadcasts.
package router

import (
	"encoding/json"

	"github.com/RidwanSharkar/Erebus-sub004/internal/room"
)

// inbound is the wire-level shape of every client-to-server message.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinRoomData struct {
	RoomID     string   `json:"roomId"`
	PlayerName string   `json:"playerName"`
	Weapon     string   `json:"weapon"`
	Subclass   string   `json:"subclass"`
	GameMode   room.Mode `json:"gameMode"`
}

type startGameData struct {
	RoomID string `json:"roomId"`
}

type playerUpdateData struct {
	RoomID            string       `json:"roomId"`
	Position          room.Vector3 `json:"position"`
	Rotation          float64      `json:"rotation"`
	Weapon            string       `json:"weapon"`
	Health            *int         `json:"health"`
	MovementDirection room.Vector3 `json:"movementDirection"`
}

type weaponChangedData struct {
	RoomID   string `json:"roomId"`
	Weapon   string `json:"weapon"`
	Subclass string `json:"subclass"`
}

type playerDamageData struct {
	RoomID         string `json:"roomId"`
	TargetPlayerID string `json:"targetPlayerId"`
	Damage         int    `json:"damage"`
	DamageType     string `json:"damageType"`
	IsCritical     bool   `json:"isCritical"`
}

type healAlliesData struct {
	RoomID string  `json:"roomId"`
	Radius float64 `json:"radius"`
	Amount int     `json:"amount"`
}

type enemyDamageData struct {
	RoomID         string `json:"roomId"`
	EnemyID        string `json:"enemyId"`
	Damage         int    `json:"damage"`
	SourcePlayerID string `json:"sourcePlayerId"`
}

type towerDamageData struct {
	RoomID     string `json:"roomId"`
	TowerID    string `json:"towerId"`
	Damage     int    `json:"damage"`
	DamageType string `json:"damageType"`
}

type pillarDamageData struct {
	RoomID         string `json:"roomId"`
	PillarID       string `json:"pillarId"`
	Damage         int    `json:"damage"`
	SourcePlayerID string `json:"sourcePlayerId"`
}

type summonedUnitDamageData struct {
	RoomID         string `json:"roomId"`
	UnitID         string `json:"unitId"`
	UnitOwnerID    string `json:"unitOwnerId"`
	Damage         int    `json:"damage"`
	SourcePlayerID string `json:"sourcePlayerId"`
}

type applyStatusEffectData struct {
	RoomID     string `json:"roomId"`
	EnemyID    string `json:"enemyId"`
	Effect     string `json:"effect"`
	DurationMs int64  `json:"durationMs"`
}

type getEnemyStatusData struct {
	RoomID  string `json:"roomId"`
	EnemyID string `json:"enemyId"`
}

type playerHealthChangedData struct {
	RoomID string `json:"roomId"`
	Health int    `json:"health"`
}

type playerShieldChangedData struct {
	RoomID string `json:"roomId"`
	Shield int    `json:"shield"`
}

type playerEssenceChangedData struct {
	RoomID  string `json:"roomId"`
	Essence int    `json:"essence"`
}

type playerLevelChangedData struct {
	RoomID string `json:"roomId"`
	Level  int    `json:"level"`
}

type playerPurchaseData struct {
	RoomID string `json:"roomId"`
	ItemID string `json:"itemId"`
}

type playerHealingData struct {
	RoomID      string `json:"roomId"`
	Amount      int    `json:"amount"`
	HealingType string `json:"healingType"`
}

type playerRespawnData struct {
	RoomID string `json:"roomId"`
}

type previewRoomData struct {
	RoomID string `json:"roomId"`
}
