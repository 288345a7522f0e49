// Package knx provides the KNX leg of the coordinator via a knxd
// group socket.
//
// The client speaks the eibd/knxd socket protocol directly: it opens a
// group connection (EIB_OPEN_GROUPCON) and exchanges group telegrams
// (EIB_GROUP_PACKET) over TCP. Outbound state changes are written as
// DPT 5.001 (volume percentage) and DPT 1.001 (mute, playback) group
// writes; inbound telegrams from wall switches and panels are parsed
// and handed to a callback for the coordinator to fan out.
//
// Connection loss triggers automatic reconnection with exponential
// backoff until Close is called.
package knx
