package node

import (
	"errors"
	"fmt"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/nodetopo/params"
	"github.com/sarchlab/nodetopo/sim"
	"github.com/sarchlab/nodetopo/simulation"
	"go.uber.org/mock/gomock"
)

var _ = Describe("BasicModel with a mocked registry", func() {
	var (
		mockCtrl *gomock.Controller
		factory  *MockComponentFactory
		wirer    *MockLinkWirer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		factory = NewMockComponentFactory(mockCtrl)
		wirer = NewMockLinkWirer(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	build := func(p params.TopologyParameters) *BasicModel {
		return MakeBuilder().
			WithFactory(factory).
			WithWirer(wirer).
			WithParams(p).
			WithNodeList(5).
			Build("")
	}

	It("should not touch the registry for nodes outside the node list", func() {
		model := build(nodeParams("simple", 3))

		built, err := model.Build(7, 2)

		Expect(err).NotTo(HaveOccurred())
		Expect(built).To(BeFalse())

		_, err = model.ThreadLinks(0)
		Expect(err).To(MatchError(ErrNotBuilt))
		_, err = model.NicLink()
		Expect(err).To(MatchError(ErrNotBuilt))
	})

	It("should reject a negative node id without touching the registry", func() {
		model := MakeBuilder().
			WithFactory(factory).
			WithWirer(wirer).
			WithParams(nodeParams("simple", 1)).
			WithNodeList(-1).
			Build("")

		built, err := model.Build(-1, 1)

		Expect(built).To(BeFalse())

		var cfgErr *params.ConfigError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(cfgErr.Key).To(Equal("nodeID"))
		Expect(err).To(MatchError(params.ErrNegative))
	})

	DescribeTable("should report configuration errors before creating anything",
		func(mutate func(bag sim.Params), numCores int, key string, cause error) {
			bag := nodeParamBag("simple", 3)
			mutate(bag)
			model := build(params.MustNew(bag))

			built, err := model.Build(5, numCores)

			Expect(built).To(BeFalse())

			var cfgErr *params.ConfigError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Key).To(Equal(key))
			Expect(err).To(MatchError(cause))
		},
		Entry("missing l2_params",
			func(bag sim.Params) { delete(bag, params.KeyL2Params) },
			2, params.KeyL2Params, params.ErrMissingKey),
		Entry("missing memory_backend_params",
			func(bag sim.Params) { delete(bag, params.KeyMemoryBackendParams) },
			2, params.KeyMemoryBackendParams, params.ErrMissingKey),
		Entry("missing nic_l1_params",
			func(bag sim.Params) { delete(bag, params.KeyNicL1Params) },
			2, params.KeyNicL1Params, params.ErrMissingKey),
		Entry("missing cpu_params with threads to build",
			func(bag sim.Params) { delete(bag, params.KeyCPUParams) },
			2, params.KeyCPUParams, params.ErrMissingKey),
		Entry("missing cpu_params with a core count that overflows the thread count",
			func(bag sim.Params) {
				bag[params.KeyNumThreads] = 2
				delete(bag, params.KeyCPUParams)
			},
			math.MaxInt, params.KeyCPUParams, params.ErrMissingKey),
		Entry("missing numThreads",
			func(bag sim.Params) { delete(bag, params.KeyNumThreads) },
			2, params.KeyNumThreads, params.ErrMissingKey),
		Entry("negative numThreads",
			func(bag sim.Params) { bag[params.KeyNumThreads] = -1 },
			2, params.KeyNumThreads, params.ErrNegative),
		Entry("negative core count",
			func(sim.Params) {},
			-1, "numCores", params.ErrNegative),
		Entry("unknown memory backend",
			func(bag sim.Params) { bag[params.KeyMemoryBackend] = "ddr5" },
			2, params.KeyMemoryBackend, params.ErrUnknownBackend),
		Entry("hbm without dimm_params",
			func(bag sim.Params) {
				bag[params.KeyMemoryBackend] = "hbm"
				delete(bag, params.KeyDimmParams)
			},
			2, params.KeyDimmParams, params.ErrMissingKey),
		Entry("unknown latency key",
			func(bag sim.Params) {
				bag[params.KeyLatencies] = sim.Params{"bus_l3_bus": "1ns"}
			},
			2, "latencies.bus_l3_bus", ErrUnknownLatency),
	)

	It("should propagate registry errors unchanged", func() {
		model := build(nodeParams("simple", 3))
		factory.EXPECT().
			CreateComponent("Node[5].L2Cache", sim.TagCache).
			Return(nil, sim.ErrDuplicateName)

		built, err := model.Build(5, 2)

		Expect(built).To(BeFalse())
		Expect(err).To(MatchError(sim.ErrDuplicateName))
		_, err = model.NicLink()
		Expect(err).To(MatchError(ErrNotBuilt))
	})

	It("should leave only the src links and the NIC uplink cuttable", func() {
		model := build(nodeParams("hbm", 2))

		newComponent := func(name string, tag sim.TypeTag) *MockComponent {
			c := NewMockComponent(mockCtrl)
			c.EXPECT().Name().Return(name).AnyTimes()
			c.EXPECT().TypeTag().Return(tag).AnyTimes()
			c.EXPECT().SetParameters(gomock.Any()).Return(nil)
			return c
		}

		factory.EXPECT().
			CreateComponent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(name string, tag sim.TypeTag) (sim.Component, error) {
				c := newComponent(name, tag)
				if tag == sim.TagMemController {
					c.EXPECT().
						AttachSubsystem(BackendSlot, sim.TagCramSim).
						Return(newComponent(name+".Backend", sim.TagCramSim), nil)
				}
				return c, nil
			}).
			Times(2*2*2 + 3 + 1 + 3)

		var open, uncuttable []string
		wirer.EXPECT().
			CreateLink(gomock.Any()).
			DoAndReturn(func(name string) (sim.Link, error) {
				l := NewMockLink(mockCtrl)
				l.EXPECT().Name().Return(name).AnyTimes()

				if strings.HasSuffix(name, "SrcLink") ||
					name == "Node[5].NIC.CPUL1Link" {
					l.EXPECT().Attach(gomock.Any()).Return(nil)
					open = append(open, name)
					return l, nil
				}

				l.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nil)
				l.EXPECT().MarkUncuttable().Do(func() {
					uncuttable = append(uncuttable, name)
				})
				return l, nil
			}).
			AnyTimes()

		built, err := model.Build(5, 2)

		Expect(err).NotTo(HaveOccurred())
		Expect(built).To(BeTrue())
		Expect(open).To(HaveLen(2*2 + 1))
		Expect(uncuttable).To(ContainElements(
			"Node[5].BusL2Link",
			"Node[5].L2MemLink",
			"Node[5].NIC.L1BusLink",
			"Node[5].HBM.MemCtrlBridgeLink",
			"Node[5].HBM.BridgeCtrlLink",
			"Node[5].HBM.CtrlDimmLink",
		))
		Expect(uncuttable).To(HaveLen(2 + 2*2*2 + 1 + 3))
	})
})

var _ = Describe("BasicModel", func() {
	var (
		s       *simulation.Simulation
		builder Builder
	)

	BeforeEach(func() {
		s = simulation.NewSimulation()
		builder = MakeBuilder().
			WithFactory(s).
			WithWirer(s).
			WithParams(nodeParams("simple", 3)).
			WithNodeList(5)
	})

	peerOf := func(c sim.Component, port string) sim.Endpoint {
		l := c.LinkAt(port)
		Expect(l).NotTo(BeNil())

		for _, e := range l.Endpoints() {
			if e.Component != c || e.Port != port {
				return e
			}
		}

		Fail("link at " + port + " has no peer")

		return sim.Endpoint{}
	}

	component := func(name string) sim.Component {
		c, found := s.GetComponentByName(name)
		Expect(found).To(BeTrue(), name)

		return c
	}

	It("should have a default name", func() {
		Expect(builder.Build("").Name()).To(Equal(DefaultModelName))
		Expect(builder.Build("Tiny").Name()).To(Equal("Tiny"))
	})

	It("should panic without a registry", func() {
		Expect(func() { MakeBuilder().Build("") }).To(Panic())
	})

	It("should build nothing for nodes outside the node list", func() {
		built, err := builder.Build("").Build(7, 2)

		Expect(err).NotTo(HaveOccurred())
		Expect(built).To(BeFalse())
		Expect(s.Components()).To(BeEmpty())
		Expect(s.Links()).To(BeEmpty())
	})

	Context("when building node 5 with 2 cores of 3 threads", func() {
		var model *BasicModel

		BeforeEach(func() {
			model = builder.Build("")

			built, err := model.Build(5, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(built).To(BeTrue())
		})

		It("should create one unit of each shared component", func() {
			Expect(s.ComponentsByTag(sim.TagBaseCPU)).To(HaveLen(6))
			Expect(s.ComponentsByTag(sim.TagCache)).To(HaveLen(6 + 1 + 1))
			Expect(s.ComponentsByTag(sim.TagBus)).To(HaveLen(1))
			Expect(s.ComponentsByTag(sim.TagMemController)).To(HaveLen(1))
			Expect(s.Components()).To(HaveLen(6 + 6 + 1 + 1 + 1 + 1))
		})

		It("should name components after the node, core and thread", func() {
			component("Node[5].L2Cache")
			component("Node[5].Bus")
			component("Node[5].Memory")
			component("Node[5].NIC.L1Cache")
			component("Node[5].Core[1].Thread[2].CPU")
			component("Node[5].Core[0].Thread[0].L1Cache")
		})

		It("should assign distinct bus ports with port 0 for the NIC", func() {
			bus := component("Node[5].Bus")

			Expect(peerOf(bus, "high_network_0").Component.Name()).
				To(Equal("Node[5].NIC.L1Cache"))

			for core := 0; core < 2; core++ {
				for thread := 0; thread < 3; thread++ {
					port := sim.IndexedPort("high_network_", 1+core*3+thread)
					peer := peerOf(bus, port)

					Expect(peer.Component.Name()).To(Equal(fmt.Sprintf(
						"Node[5].Core[%d].Thread[%d].L1Cache", core, thread)))
					Expect(peer.Port).To(Equal("low_network_0"))
				}
			}

			Expect(bus.Ports()).To(ConsistOf(
				"high_network_0", "high_network_1", "high_network_2",
				"high_network_3", "high_network_4", "high_network_5",
				"high_network_6", "low_network_0",
			))
		})

		It("should connect the bus to the L2 and the L2 to memory", func() {
			bus := component("Node[5].Bus")
			l2 := component("Node[5].L2Cache")

			busL2 := bus.LinkAt("low_network_0")
			Expect(busL2.Name()).To(Equal("Node[5].BusL2Link"))
			Expect(busL2.Uncuttable()).To(BeTrue())
			Expect(peerOf(bus, "low_network_0").Component).To(BeIdenticalTo(l2))
			Expect(busL2.Endpoints()[0].Latency).To(Equal(50 * sim.PS))

			mem := peerOf(l2, "low_network_0")
			Expect(mem.Component.Name()).To(Equal("Node[5].Memory"))
			Expect(mem.Port).To(Equal("direct_link"))
		})

		It("should wire each CPU to its own L1", func() {
			cpu := component("Node[5].Core[1].Thread[0].CPU")

			l := cpu.LinkAt("cache_link")
			Expect(l.Name()).To(Equal("Node[5].Core[1].Thread[0].CPUL1Link"))
			Expect(l.Uncuttable()).To(BeTrue())
			Expect(l.Endpoints()[0].Latency).To(Equal(100 * sim.PS))

			peer := peerOf(cpu, "cache_link")
			Expect(peer.Component.Name()).
				To(Equal("Node[5].Core[1].Thread[0].L1Cache"))
			Expect(peer.Port).To(Equal("high_network_0"))
			Expect(peer.Latency).To(Equal(sim.NS))
		})

		It("should return the src links of each core in thread order", func() {
			for core := 0; core < 2; core++ {
				links, err := model.ThreadLinks(core)
				Expect(err).NotTo(HaveOccurred())
				Expect(links).To(HaveLen(3))

				for thread, l := range links {
					cpu := component(fmt.Sprintf(
						"Node[5].Core[%d].Thread[%d].CPU", core, thread))

					Expect(l).To(BeIdenticalTo(cpu.LinkAt("src")))
					Expect(sim.IsOpen(l)).To(BeTrue())
					Expect(l.Uncuttable()).To(BeFalse())
					Expect(l.Endpoints()[0].Latency).To(Equal(sim.PS))
				}
			}
		})

		It("should reject core indices outside the build", func() {
			_, err := model.ThreadLinks(2)
			Expect(err).To(MatchError(ErrCoreOutOfRange))

			_, err = model.ThreadLinks(-1)
			Expect(err).To(MatchError(ErrCoreOutOfRange))
		})

		It("should expose the NIC uplink open and cuttable", func() {
			l, err := model.NicLink()
			Expect(err).NotTo(HaveOccurred())

			Expect(l.Name()).To(Equal("Node[5].NIC.CPUL1Link"))
			Expect(sim.IsOpen(l)).To(BeTrue())
			Expect(l.Uncuttable()).To(BeFalse())

			end := l.Endpoints()[0]
			Expect(end.Component.Name()).To(Equal("Node[5].NIC.L1Cache"))
			Expect(end.Port).To(Equal("high_network_0"))
		})

		It("should mark every other link uncuttable", func() {
			Expect(s.Links()).To(HaveLen(2 + 6*3 + 2))
			Expect(s.OpenLinks()).To(HaveLen(6 + 1))

			for _, l := range s.Links() {
				Expect(l.Uncuttable()).To(Equal(!sim.IsOpen(l)), l.Name())
			}
		})

		It("should hand each component its parameters", func() {
			Expect(component("Node[5].L2Cache").Parameters()).
				To(Equal(sim.Params{"cache_size": "1MiB"}))
			Expect(component("Node[5].Core[0].Thread[1].CPU").Parameters()).
				To(Equal(sim.Params{"clock": "2GHz"}))
			Expect(component("Node[5].NIC.L1Cache").Parameters()).
				To(Equal(sim.Params{"cache_size": "4KiB"}))
		})

		It("should attach a simple backend to the memory controller", func() {
			backend := component("Node[5].Memory").Subsystem(BackendSlot)

			Expect(backend).NotTo(BeNil())
			Expect(backend.TypeTag()).To(Equal(sim.TagSimpleMem))
			Expect(backend.Name()).To(Equal("Node[5].Memory.Backend"))
			Expect(backend.Parameters()).
				To(Equal(sim.Params{"access_time": "50ns"}))
		})

		It("should reject building the same node again", func() {
			built, err := model.Build(5, 2)

			Expect(built).To(BeFalse())
			Expect(err).To(MatchError(sim.ErrDuplicateName))
			Expect(model.NumCores()).To(Equal(2))
		})
	})

	It("should attach a timing backend", func() {
		model := builder.WithParams(nodeParams("timing", 1)).Build("")

		_, err := model.Build(5, 1)
		Expect(err).NotTo(HaveOccurred())

		backend := component("Node[5].Memory").Subsystem(BackendSlot)
		Expect(backend.TypeTag()).To(Equal(sim.TagTimingDRAM))
		Expect(s.ComponentsByTag(sim.TagCramSimBridge)).To(BeEmpty())
	})

	It("should add three components and three links for hbm", func() {
		simple := simulation.NewSimulation()
		_, err := builder.WithFactory(simple).WithWirer(simple).
			Build("").Build(5, 2)
		Expect(err).NotTo(HaveOccurred())

		model := builder.WithParams(nodeParams("hbm", 3)).Build("")
		_, err = model.Build(5, 2)
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Components()).To(HaveLen(len(simple.Components()) + 3))
		Expect(s.Links()).To(HaveLen(len(simple.Links()) + 3))

		backend := component("Node[5].Memory").Subsystem(BackendSlot)
		Expect(backend.TypeTag()).To(Equal(sim.TagCramSim))

		bridge := component("Node[5].HBM.Bridge")
		ctrl := component("Node[5].HBM.Controller")
		dimm := component("Node[5].HBM.Dimm")

		Expect(peerOf(backend, "cramsim_link").Component).To(BeIdenticalTo(bridge))
		Expect(peerOf(bridge, "memLink").Component).To(BeIdenticalTo(ctrl))
		Expect(peerOf(ctrl, "memLink").Component).To(BeIdenticalTo(dimm))

		chain := []struct {
			name    string
			latency sim.Latency
		}{
			{"Node[5].HBM.MemCtrlBridgeLink", 2 * sim.NS},
			{"Node[5].HBM.BridgeCtrlLink", sim.NS},
			{"Node[5].HBM.CtrlDimmLink", sim.NS},
		}
		for _, c := range chain {
			l, found := s.GetLinkByName(c.name)
			Expect(found).To(BeTrue(), c.name)
			Expect(l.Uncuttable()).To(BeTrue())
			for _, e := range l.Endpoints() {
				Expect(e.Latency).To(Equal(c.latency))
			}
		}

		Expect(dimm.Parameters()).To(Equal(sim.Params{"numChannels": 8}))
	})

	It("should build several nodes into one registry", func() {
		model := builder.WithNodeList(0, 1).Build("")

		for id := NodeID(0); id < 2; id++ {
			built, err := model.Build(id, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(built).To(BeTrue())
		}

		Expect(s.ComponentsByTag(sim.TagBus)).To(HaveLen(2))

		nic, err := model.NicLink()
		Expect(err).NotTo(HaveOccurred())
		Expect(nic.Name()).To(Equal("Node[1].NIC.CPUL1Link"))
	})

	It("should build a node without cores", func() {
		bag := nodeParamBag("simple", 3)
		delete(bag, params.KeyCPUParams)
		delete(bag, params.KeyL1Params)
		model := builder.WithParams(params.MustNew(bag)).Build("")

		built, err := model.Build(5, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(built).To(BeTrue())
		Expect(s.ComponentsByTag(sim.TagBaseCPU)).To(BeEmpty())
		Expect(model.NumCores()).To(Equal(0))

		_, err = model.ThreadLinks(0)
		Expect(err).To(MatchError(ErrCoreOutOfRange))
	})

	It("should take latencies from the parameters", func() {
		bag := nodeParamBag("simple", 1)
		bag[params.KeyLatencies] = sim.Params{"src": "5ps", "bus_l2_bus": 70}
		model := builder.WithParams(params.MustNew(bag)).Build("")

		_, err := model.Build(5, 1)
		Expect(err).NotTo(HaveOccurred())

		links, _ := model.ThreadLinks(0)
		Expect(links[0].Endpoints()[0].Latency).To(Equal(5 * sim.PS))

		busL2, _ := s.GetLinkByName("Node[5].BusL2Link")
		Expect(busL2.Endpoints()[0].Latency).To(Equal(70 * sim.PS))
		Expect(busL2.Endpoints()[1].Latency).To(Equal(50 * sim.PS))
	})

	It("should prefer latencies given to the builder", func() {
		lat := DefaultLatencies()
		lat.NicUplink = 3 * sim.NS

		bag := nodeParamBag("simple", 1)
		bag[params.KeyLatencies] = sim.Params{"nic_uplink": "1ns"}
		model := builder.WithParams(params.MustNew(bag)).
			WithLatencies(lat).
			Build("")

		_, err := model.Build(5, 1)
		Expect(err).NotTo(HaveOccurred())

		nic, _ := model.NicLink()
		Expect(nic.Endpoints()[0].Latency).To(Equal(3 * sim.NS))
	})
})
