package room

// enemyHealthTable holds max health indexed by enemy type then by level (1..5).
// A zero entry means the type cannot spawn at that level.
var enemyHealthTable = map[EnemyType][5]int{
	EnemySkeleton:    {725, 1084, 1241, 1361, 1424},
	EnemyMage:        {684, 829, 925, 1029, 1141},
	EnemyReaper:      {0, 1084, 1241, 1361, 1424},
	EnemyAbomination: {0, 0, 2304, 2500, 2704},
	EnemyAscendant:   {0, 0, 0, 2081, 2249},
	EnemyDeathKnight: {0, 0, 1681, 1849, 2081},
}

const (
	fallenTitanHealth = 9704
	bossHealth        = 25000
)

// EnemyMaxHealth returns the max health for a (type, level) pair.
// Elite scales linearly with level; fallen-titan and boss are fixed.
func EnemyMaxHealth(t EnemyType, level int) int {
	if level < 1 {
		level = 1
	}
	if level > 5 {
		level = 5
	}
	switch t {
	case EnemyElite:
		return 1000 * level
	case EnemyFallenTitan:
		return fallenTitanHealth
	case EnemyBoss:
		return bossHealth
	}
	if row, ok := enemyHealthTable[t]; ok {
		return row[level-1]
	}
	return 0
}

// enemyMoveSpeed is units/second, by type. Elite is stationary.
var enemyMoveSpeed = map[EnemyType]float64{
	EnemyElite:       0,
	EnemySkeleton:    2.0,
	EnemyMage:        1.5,
	EnemyReaper:      2.5,
	EnemyAbomination: 1.0,
	EnemyDeathKnight: 1.8,
	EnemyAscendant:   2.2,
	EnemyFallenTitan: 0.8,
}

// LevelFromKillCount derives the room's PvE difficulty level from killCount.
func LevelFromKillCount(killCount int) int {
	switch {
	case killCount < 10:
		return 1
	case killCount < 25:
		return 2
	case killCount < 45:
		return 3
	case killCount < 70:
		return 4
	default:
		return 5
	}
}

// Experience level thresholds (cumulative XP), index 0 unused so Level N maps to levelThresholds[N].
var levelThresholds = [6]int{0, 0, 25, 75, 150, 250}

const maxLevel = 5

// LevelFromXP returns the player level for a total XP amount.
func LevelFromXP(xp int) int {
	level := 1
	for l := 2; l <= maxLevel; l++ {
		if xp >= levelThresholds[l] {
			level = l
		}
	}
	return level
}

// MaxHealthForLevel implements the level-based health scaling formula.
func MaxHealthForLevel(level int) int {
	return 1000 + 150*(level-1)
}

const (
	baseMultiplayerMaxHealth = 200 // 200 + killCount
	towerStartHealth         = 10000
	pillarStartHealth        = 4000
	maxRoomPlayers           = 5
)
