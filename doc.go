/*
Package ddnsync keeps a single DNS "A" record pointed at the machine's current public IPv4 address.

Usage will always start with [ddnsync.New],
which returns a [Client] for one record name.
A run resolves the public address through an ordered chain of [Source] implementations,
consults a [Cache] to skip the provider entirely when nothing changed,
and otherwise hands the address to a [Reconciler] which creates or updates the record through a [Provider].
Additional client configuration options are listed in the docs for New.
*/
package ddnsync
