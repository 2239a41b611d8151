package ebus

// EventResult invokes fn on the first handler at the address identified by id, and stores its result in out.
// Only one handler is invoked, even if several are connected.
// If there's no handler, then out is left untouched and false is returned.
func EventResult[I comparable, ID comparable, R any](b *Bus[I, ID], out *R, id ID, fn func(I) R) bool {
	return b.first(Route[ID]{ID: id}, nil, func(h I) {
		*out = fn(h)
	})
}

// EventResultReverse is the same as [EventResult], but the last handler at the address is invoked.
func EventResultReverse[I comparable, ID comparable, R any](b *Bus[I, ID], out *R, id ID, fn func(I) R) bool {
	return b.first(Route[ID]{ID: id, Reverse: true}, nil, func(h I) {
		*out = fn(h)
	})
}

// BroadcastResult invokes fn on the first handler of the first address that has one, and stores its result in out.
// If there's no handler on the bus, then out is left untouched and false is returned.
func BroadcastResult[I comparable, ID comparable, R any](b *Bus[I, ID], out *R, fn func(I) R) bool {
	return b.first(Route[ID]{Broadcast: true}, nil, func(h I) {
		*out = fn(h)
	})
}

// BroadcastResultReverse is the same as [BroadcastResult], but the last handler of the last address is invoked.
func BroadcastResultReverse[I comparable, ID comparable, R any](b *Bus[I, ID], out *R, fn func(I) R) bool {
	return b.first(Route[ID]{Broadcast: true, Reverse: true}, nil, func(h I) {
		*out = fn(h)
	})
}

// EventCollect invokes fn on every handler at the address identified by id, and returns their results in handler order.
func EventCollect[I comparable, ID comparable, R any](b *Bus[I, ID], id ID, fn func(I) R) []R {
	var results []R
	b.all(Route[ID]{ID: id}, func(h I) {
		results = append(results, fn(h))
	})
	return results
}

// BroadcastCollect invokes fn on every handler on the bus, and returns their results in broadcast order.
func BroadcastCollect[I comparable, ID comparable, R any](b *Bus[I, ID], fn func(I) R) []R {
	var results []R
	b.all(Route[ID]{Broadcast: true}, func(h I) {
		results = append(results, fn(h))
	})
	return results
}

// BroadcastReduce folds the results of fn on every handler on the bus into an accumulator, starting with init.
//
//	total := ebus.BroadcastReduce(bus, 0, Counter.Count, func(sum, n int) int { return sum + n })
func BroadcastReduce[I comparable, ID comparable, R any, A any](b *Bus[I, ID], init A, fn func(I) R, reduce func(A, R) A) A {
	acc := init
	b.all(Route[ID]{Broadcast: true}, func(h I) {
		acc = reduce(acc, fn(h))
	})
	return acc
}
