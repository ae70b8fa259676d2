// Package interaction mediates between interactive 3D markers and a robot's kinematic state.
//
// Clients move markers in a visualization tool; the resulting feedback events are dispatched
// through a RobotInteraction to Handlers. Each Handler maintains one RobotState and updates it in
// response to feedback: end-effector markers are resolved with inverse kinematics under per-group
// KinematicOptions, joint markers are applied directly to the joint's degree of freedom, and
// generic markers run a user-provided callback. Handlers track per-marker error state, pose
// offsets, the last commanded marker poses, and optional context menus, and notify an observer
// whenever the maintained state changes.
package interaction
