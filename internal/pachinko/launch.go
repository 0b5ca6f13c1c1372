package pachinko

// Launcher tracks charge power while the launch input is held.
type Launcher struct {
	Power    int  `json:"power" msgpack:"power"`
	Charging bool `json:"charging" msgpack:"charging"`
}

// StartCharge begins accumulating power. Calling it while already charging keeps
// the current power.
func (l *Launcher) StartCharge() {
	l.Charging = true
}

// Tick adds one charge step, clamped at MaxPower. It is a no-op when idle.
func (l *Launcher) Tick() {
	if !l.Charging {
		return
	}
	l.Power += PowerStep
	if l.Power > MaxPower {
		l.Power = MaxPower
	}
}

// Reset clears power and charging state.
func (l *Launcher) Reset() {
	l.Power = 0
	l.Charging = false
}

// LaunchVelocity maps power (0-100) linearly onto an upward speed in
// [MinLaunchSpeed, MinLaunchSpeed+LaunchSpeedRange] with a fixed leftward drift.
func LaunchVelocity(power int) Vec2 {
	if power < 0 {
		power = 0
	}
	if power > MaxPower {
		power = MaxPower
	}
	speed := float64(power)/MaxPower*LaunchSpeedRange + MinLaunchSpeed
	return NewVec2(LaunchVX, -speed)
}

// Release converts the accumulated power into a fresh ball at origin and resets the
// launcher.
func (l *Launcher) Release(origin Vec2) Ball {
	ball := Ball{
		Position: origin,
		Velocity: LaunchVelocity(l.Power),
		Active:   true,
	}
	l.Reset()
	return ball
}
