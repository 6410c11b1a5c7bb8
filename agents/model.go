package agents

import (
	"github.com/zeu5/pcl-gym/nn"
	"github.com/zeu5/pcl-gym/policies"
)

// PCLSeparateModel bundles a policy network and a separate value network.
type PCLSeparateModel struct {
	Pi policies.Policy
	V  policies.VFunction
}

func NewPCLSeparateModel(pi policies.Policy, v policies.VFunction) *PCLSeparateModel {
	return &PCLSeparateModel{Pi: pi, V: v}
}

func (m *PCLSeparateModel) Params() []*nn.Param {
	return append(m.Pi.Params(), m.V.Params()...)
}
