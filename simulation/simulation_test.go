package simulation

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/nodetopo/datarecording"
	"github.com/sarchlab/nodetopo/sim"
	"github.com/sarchlab/nodetopo/sim/hooking"
)

var _ = Describe("Simulation", func() {
	var s *Simulation

	BeforeEach(func() {
		s = MakeBuilder().Build()
	})

	It("should create components with unique names", func() {
		c, err := s.CreateComponent("Node[0].Bus", sim.TagBus)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Name()).To(Equal("Node[0].Bus"))
		Expect(c.TypeTag()).To(Equal(sim.TagBus))

		_, err = s.CreateComponent("Node[0].Bus", sim.TagCache)
		Expect(err).To(MatchError(sim.ErrDuplicateName))
		Expect(s.Components()).To(HaveLen(1))
	})

	It("should reject unknown type tags", func() {
		_, err := s.CreateComponent("Node[0].Bus", sim.TypeTag("memHierarchy.Bux"))

		Expect(err).To(MatchError(sim.ErrUnknownTypeTag))
		Expect(s.Components()).To(BeEmpty())
	})

	It("should reject invalid names", func() {
		_, err := s.CreateComponent("node0_bus", sim.TagBus)
		Expect(err).To(HaveOccurred())

		_, err = s.CreateLink("bus_l2_link")
		Expect(err).To(HaveOccurred())
	})

	It("should create links with unique names", func() {
		_, err := s.CreateLink("Node[0].BusL2Link")
		Expect(err).NotTo(HaveOccurred())

		_, err = s.CreateLink("Node[0].BusL2Link")
		Expect(err).To(MatchError(sim.ErrDuplicateName))
		Expect(s.Links()).To(HaveLen(1))
	})

	It("should find components and links by name", func() {
		c, _ := s.CreateComponent("Node[0].Bus", sim.TagBus)
		l, _ := s.CreateLink("Node[0].BusL2Link")

		found, ok := s.GetComponentByName("Node[0].Bus")
		Expect(ok).To(BeTrue())
		Expect(found).To(BeIdenticalTo(c))

		foundLink, ok := s.GetLinkByName("Node[0].BusL2Link")
		Expect(ok).To(BeTrue())
		Expect(foundLink).To(BeIdenticalTo(l))

		_, ok = s.GetComponentByName("Node[1].Bus")
		Expect(ok).To(BeFalse())
	})

	Context("when setting parameters", func() {
		It("should merge bags", func() {
			c, _ := s.CreateComponent("Node[0].L2Cache", sim.TagCache)

			Expect(c.SetParameters(sim.Params{"cache_size": "1MiB"})).To(Succeed())
			Expect(c.SetParameters(sim.Params{"associativity": 8})).To(Succeed())

			Expect(c.Parameters()).To(Equal(sim.Params{
				"cache_size":    "1MiB",
				"associativity": 8,
			}))
		})

		It("should reject invalid bags", func() {
			c, _ := s.CreateComponent("Node[0].L2Cache", sim.TagCache)

			err := c.SetParameters(sim.Params{"sizes": []string{"1"}})

			Expect(err).To(MatchError(sim.ErrInvalidParams))
			Expect(c.Parameters()).To(BeEmpty())
		})
	})

	Context("when attaching subsystems", func() {
		It("should name the subsystem after the slot", func() {
			mem, _ := s.CreateComponent("Node[0].Memory", sim.TagMemController)

			backend, err := mem.AttachSubsystem("backend", sim.TagSimpleMem)

			Expect(err).NotTo(HaveOccurred())
			Expect(backend.Name()).To(Equal("Node[0].Memory.Backend"))
			Expect(mem.Subsystem("backend")).To(BeIdenticalTo(backend))
			Expect(s.Components()).To(HaveLen(1))
			Expect(s.Subsystems()).To(HaveLen(1))
			Expect(s.ComponentsByTag(sim.TagSimpleMem)).To(HaveLen(1))
		})

		It("should not reuse a slot", func() {
			mem, _ := s.CreateComponent("Node[0].Memory", sim.TagMemController)
			_, _ = mem.AttachSubsystem("backend", sim.TagSimpleMem)

			_, err := mem.AttachSubsystem("backend", sim.TagTimingDRAM)

			Expect(err).To(MatchError(sim.ErrSlotOccupied))
		})

		It("should wire a bus to the link of a nested MMIO subsystem", func() {
			bus, _ := s.CreateComponent("Bus", sim.TagBus)
			uart, _ := s.CreateComponent("UART", sim.TagUART)

			mmio, err := uart.AttachSubsystem("mmio", sim.TagMMIO)
			Expect(err).NotTo(HaveOccurred())
			memLink, err := mmio.AttachSubsystem("link", sim.TagMemLink)
			Expect(err).NotTo(HaveOccurred())

			l, _ := s.CreateLink("UARTBusLink")
			err = l.Connect(
				sim.At(bus, "low_network_1", 10*sim.PS),
				sim.At(memLink, "port", 10*sim.PS))

			Expect(err).NotTo(HaveOccurred())
			Expect(memLink.Name()).To(Equal("UART.Mmio.Link"))
			Expect(uart.Subsystem("mmio").Subsystem("link")).
				To(BeIdenticalTo(memLink))
			Expect(memLink.LinkAt("port")).To(BeIdenticalTo(l))
			Expect(s.Subsystems()).To(HaveLen(2))
		})

		It("should not plug a link into an MMIO subsystem directly", func() {
			uart, _ := s.CreateComponent("UART", sim.TagUART)
			mmio, _ := uart.AttachSubsystem("mmio", sim.TagMMIO)

			l, _ := s.CreateLink("UARTBusLink")
			err := l.Attach(sim.At(mmio, "port", 10*sim.PS))

			Expect(err).To(MatchError(sim.ErrInvalidPort))
		})

		It("should reject unknown tags", func() {
			mem, _ := s.CreateComponent("Node[0].Memory", sim.TagMemController)

			_, err := mem.AttachSubsystem("backend", "memHierarchy.fancyMem")

			Expect(err).To(MatchError(sim.ErrUnknownTypeTag))
			Expect(mem.Subsystem("backend")).To(BeNil())
		})
	})

	Context("when connecting links", func() {
		var bus, l2 sim.Component

		BeforeEach(func() {
			bus, _ = s.CreateComponent("Node[0].Bus", sim.TagBus)
			l2, _ = s.CreateComponent("Node[0].L2Cache", sim.TagCache)
		})

		It("should connect two endpoints", func() {
			l, _ := s.CreateLink("Node[0].BusL2Link")

			err := l.Connect(
				sim.At(bus, "low_network_0", 50*sim.PS),
				sim.At(l2, "high_network_0", 50*sim.PS))

			Expect(err).NotTo(HaveOccurred())
			Expect(l.Endpoints()).To(HaveLen(2))
			Expect(bus.LinkAt("low_network_0")).To(BeIdenticalTo(l))
			Expect(l2.Ports()).To(Equal([]string{"high_network_0"}))
			Expect(sim.IsOpen(l)).To(BeFalse())
		})

		It("should reject ports outside the schema", func() {
			l, _ := s.CreateLink("Node[0].BusL2Link")

			err := l.Connect(
				sim.At(bus, "direct_link", 50*sim.PS),
				sim.At(l2, "high_network_0", 50*sim.PS))

			Expect(err).To(MatchError(sim.ErrInvalidPort))
			Expect(l.Endpoints()).To(BeEmpty())
			Expect(l2.LinkAt("high_network_0")).To(BeNil())
		})

		It("should allow at most one link per port", func() {
			l1, _ := s.CreateLink("Node[0].LinkA")
			l2Link, _ := s.CreateLink("Node[0].LinkB")

			Expect(l1.Connect(
				sim.At(bus, "low_network_0", 50*sim.PS),
				sim.At(l2, "high_network_0", 50*sim.PS))).To(Succeed())

			err := l2Link.Connect(
				sim.At(bus, "low_network_1", 50*sim.PS),
				sim.At(l2, "high_network_0", 50*sim.PS))

			Expect(err).To(MatchError(sim.ErrPortOccupied))
			Expect(bus.LinkAt("low_network_1")).To(BeNil())
		})

		It("should leave a link open when only one end is attached", func() {
			l, _ := s.CreateLink("Node[0].Uplink")

			Expect(l.Attach(sim.At(l2, "high_network_0", sim.NS))).To(Succeed())

			Expect(sim.IsOpen(l)).To(BeTrue())
			Expect(s.OpenLinks()).To(ConsistOf(l))

			Expect(l.Attach(sim.At(bus, "high_network_0", sim.NS))).To(Succeed())
			Expect(s.OpenLinks()).To(BeEmpty())
		})

		It("should not attach a third end", func() {
			other, _ := s.CreateComponent("Node[0].Other", sim.TagCache)
			l, _ := s.CreateLink("Node[0].Link")
			_ = l.Connect(
				sim.At(bus, "low_network_0", 50*sim.PS),
				sim.At(l2, "high_network_0", 50*sim.PS))

			err := l.Attach(sim.At(other, "high_network_0", sim.PS))

			Expect(err).To(MatchError(sim.ErrLinkFull))
			Expect(other.LinkAt("high_network_0")).To(BeNil())
		})

		It("should not connect a port to itself", func() {
			l, _ := s.CreateLink("Node[0].Loop")

			err := l.Connect(
				sim.At(bus, "low_network_0", 50*sim.PS),
				sim.At(bus, "low_network_0", 50*sim.PS))

			Expect(err).To(HaveOccurred())
		})

		It("should reject components of another simulation", func() {
			otherSim := NewSimulation()
			foreign, _ := otherSim.CreateComponent("Node[0].Bus", sim.TagBus)
			l, _ := s.CreateLink("Node[0].Link")

			err := l.Attach(sim.At(foreign, "low_network_0", sim.PS))

			Expect(err).To(HaveOccurred())
		})

		It("should mark links uncuttable once", func() {
			marks := 0
			s.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
				if ctx.Pos == sim.HookPosLinkMarkedUncuttable {
					marks++
				}
			}))

			l, _ := s.CreateLink("Node[0].Link")
			Expect(l.Uncuttable()).To(BeFalse())

			l.MarkUncuttable()
			l.MarkUncuttable()

			Expect(l.Uncuttable()).To(BeTrue())
			Expect(marks).To(Equal(1))
		})
	})

	It("should invoke hooks in build order", func() {
		var positions []string
		s.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			positions = append(positions, ctx.Pos.Name)
		}))

		mem, _ := s.CreateComponent("Node[0].Memory", sim.TagMemController)
		_ = mem.SetParameters(sim.Params{"clock": "1GHz"})
		_, _ = mem.AttachSubsystem("backend", sim.TagSimpleMem)
		l, _ := s.CreateLink("Node[0].Link")
		_ = l.Attach(sim.At(mem, "direct_link", sim.PS))

		Expect(positions).To(Equal([]string{
			sim.HookPosComponentCreated.Name,
			sim.HookPosParamsSet.Name,
			sim.HookPosSubsystemAttached.Name,
			sim.HookPosLinkCreated.Name,
			sim.HookPosLinkAttached.Name,
		}))
	})

	Context("with recording", func() {
		var recorded *Simulation

		AfterEach(func() {
			recorded.Terminate()
			os.Remove("test_topology_output.sqlite3")
		})

		It("should create a data recorder", func() {
			recorded = MakeBuilder().
				WithRecording().
				WithOutputFileName("test_topology_output").
				Build()

			Expect(recorded.GetDataRecorder()).NotTo(BeNil())
			Expect(recorded.NumHooks()).To(Equal(1))
		})

		It("should record into a given data recorder", func() {
			path := filepath.Join(GinkgoT().TempDir(), "custom")
			r := datarecording.New(path)

			recorded = MakeBuilder().WithDataRecorder(r).Build()

			Expect(recorded.GetDataRecorder()).To(BeIdenticalTo(r))
			Expect(r.ListTables()).To(ContainElements(
				datarecording.ComponentTable, datarecording.LinkEndTable))
		})
	})

	It("should panic on contradicting builder settings", func() {
		Expect(func() { MakeBuilder().WithMonitorPort(8080).Build() }).To(Panic())
		Expect(func() { MakeBuilder().WithOutputFileName("x").Build() }).To(Panic())
		Expect(func() {
			r := datarecording.New(filepath.Join(GinkgoT().TempDir(), "x"))
			MakeBuilder().WithDataRecorder(r).WithOutputFileName("x").Build()
		}).To(Panic())
	})
})
