package segment

// Condition paths relative to the conditions subtree. Inertial frames
// use x forward, z down.
const (
	Time               = "frames.inertial.time"
	PositionVector     = "frames.inertial.position_vector"
	VelocityVector     = "frames.inertial.velocity_vector"
	AccelerationVector = "frames.inertial.acceleration_vector"
	GravityForce       = "frames.inertial.gravity_force_vector"
	TotalForce         = "frames.inertial.total_force_vector"
	FlightPath         = "frames.inertial.flight_path_angle"
	BodyRotations      = "frames.body.inertial_rotations"
	Latitude           = "frames.planet.latitude"
	Longitude          = "frames.planet.longitude"

	Altitude        = "freestream.altitude"
	Density         = "freestream.density"
	Pressure        = "freestream.pressure"
	Temperature     = "freestream.temperature"
	SpeedOfSound    = "freestream.speed_of_sound"
	Airspeed        = "freestream.velocity"
	Mach            = "freestream.mach_number"
	DynamicPressure = "freestream.dynamic_pressure"

	AngleOfAttack     = "aerodynamics.angle_of_attack"
	LiftCoefficient   = "aerodynamics.lift_coefficient"
	DragCoefficient   = "aerodynamics.drag_coefficient"
	MomentCoefficient = "aerodynamics.moment_coefficient"
	Lift              = "aerodynamics.lift"
	Drag              = "aerodynamics.drag"
	Moment            = "aerodynamics.moment"
	LiftToDrag        = "aerodynamics.lift_to_drag"

	Thrust   = "propulsion.thrust"
	FuelFlow = "propulsion.fuel_flow_rate"

	TotalMass  = "weights.total_mass"
	MassRate   = "weights.vehicle_mass_rate"
	FuelBurned = "weights.fuel_burned"
)

// Indexed condition families.
const (
	ThrottleFamily = "propulsion." + Throttle
	RPMFamily      = "propulsion." + RPM
	ElevatorFamily = "control_surfaces." + Elevator
)

// StoreEnergy is the stored energy path of one energy store.
func StoreEnergy(store string) string { return "energy." + store + ".energy" }

// StorePower is the power drawn from one energy store.
func StorePower(store string) string { return "energy." + store + ".power_draw" }
