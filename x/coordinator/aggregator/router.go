package aggregator

import (
	"fmt"

	"github.com/GPTx-global/oraclelink/x/coordinator/types"
)

// Router binds aggregator tags to strategies.
type Router struct {
	strategies map[types.AggregatorType]types.Strategy
	sealed     bool
}

func NewRouter() *Router {
	return &Router{strategies: make(map[types.AggregatorType]types.Strategy)}
}

// AddStrategy registers s under its own tag. It panics on a duplicate tag or
// after the router was sealed.
func (r *Router) AddStrategy(s types.Strategy) *Router {
	if r.sealed {
		panic("cannot add strategy to a sealed router")
	}
	if s.Type() == types.AggregatorNone {
		panic("strategy cannot use the none aggregator tag")
	}
	if _, ok := r.strategies[s.Type()]; ok {
		panic(fmt.Sprintf("strategy %s already registered", s.Type()))
	}
	r.strategies[s.Type()] = s
	return r
}

// GetStrategy returns the strategy bound to typ.
func (r *Router) GetStrategy(typ types.AggregatorType) (types.Strategy, bool) {
	s, ok := r.strategies[typ]
	return s, ok
}

// Strategies returns every registered strategy.
func (r *Router) Strategies() []types.Strategy {
	out := make([]types.Strategy, 0, len(r.strategies))
	for _, typ := range []types.AggregatorType{types.AggregatorMean, types.AggregatorMedian} {
		if s, ok := r.strategies[typ]; ok {
			out = append(out, s)
		}
	}
	for typ, s := range r.strategies {
		if typ != types.AggregatorMean && typ != types.AggregatorMedian {
			out = append(out, s)
		}
	}
	return out
}

// Seal prevents further registrations.
func (r *Router) Seal() {
	r.sealed = true
}

// Sealed reports whether Seal was called.
func (r *Router) Sealed() bool {
	return r.sealed
}

// DefaultRouter returns a router with the Mean and Median strategies.
func DefaultRouter(mean *Mean, median *Median) *Router {
	return NewRouter().AddStrategy(mean).AddStrategy(median)
}
