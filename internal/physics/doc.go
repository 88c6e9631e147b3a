// Package physics provides the step functions segment builders wire into
// their processes.
//
// Every function has the shape func(segment.Frame) error and reads or
// writes conditions by their dotted paths:
//
//   - initialize: [InitTime], [InitWeights], [InitEnergy],
//     [InitInertialPosition], [InitPlanetPosition]
//   - iterate: [Unknowns], [Kinematics], [Atmosphere], [Orientations],
//     [Aerodynamics], [Propulsion], [Weights], [Forces], [Residuals]
//   - post_process: [InertialPosition], [PlanetPosition], [Energy], [Finalize]
//
// Starting values follow one rule, implemented by [Start]: an explicit
// segment parameter wins, then the terminal row of the previous segment,
// then a vehicle default. The models are deliberately simple: an ISA
// atmosphere, a linear lift curve with parabolic drag, and point-mass
// longitudinal dynamics in an inertial frame with z pointing down.
package physics
