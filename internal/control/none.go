package control

// None is the open-loop baseline: it always outputs zero.
type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) Update(target, measured, dt float64) (float64, error) {
	if err := checkTimestep(dt); err != nil {
		return 0, err
	}
	return 0, nil
}
