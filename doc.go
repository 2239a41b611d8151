/*
Package busx is the root of a small module built around [github.com/saylorsolutions/busx/ebus], a typed, in-process event bus.

The bus itself lives in ebus, with a ticker driven queue pump in ebus/pump and a Prometheus collector in ebus/ebusprom.
The remaining packages are the supporting pieces the bus and its tooling are built from, and are named to map intuitively to the standard packages they extend.
The ebusbench command under cmd drives a bus through a configurable workload.
*/
package busx
