package storage

// Uniter is a named pair of chain middlewares. A unit's FindMiddleware
// undoes its PutMiddleware.
type Uniter interface {
	Name() string
	PutMiddleware(next PutHandler) PutHandler
	FindMiddleware(next FindHandler) FindHandler
}

// attachUnits attaches every unit to both chains, in order.
func attachUnits(put *PutChain, find *FindChain, units ...Uniter) {
	for _, u := range units {
		put.Attach(u.PutMiddleware)
		find.Attach(u.FindMiddleware)
	}
}
