package tag

// Well-known tags used by the built-in producers and the demo sheet.
var (
	StateDualWielding = New("State.DualWielding")
	StateMoving       = New("State.Moving")
	StateStationary   = New("State.Stationary")
	StateLowLife      = New("State.LowLife")
	StateFullLife     = New("State.FullLife")

	BuffPurityOfElements = New("Buff.PurityOfElements")
	BuffOnslaught        = New("Buff.Onslaught")
	BuffFortify          = New("Buff.Fortify")

	DamagePhysical  = New("Damage.Physical")
	DamageFire      = New("Damage.Fire")
	DamageCold      = New("Damage.Cold")
	DamageLightning = New("Damage.Lightning")
	DamageChaos     = New("Damage.Chaos")

	CombatCritRecently    = New("Combat.CritRecently")
	CombatBlockedRecently = New("Combat.BlockedRecently")
	CombatKilledRecently  = New("Combat.KilledRecently")

	EquipmentShield    = New("Equipment.Shield")
	EquipmentTwoHanded = New("Equipment.TwoHanded")
	EquipmentDualWield = New("Equipment.DualWield")
)
