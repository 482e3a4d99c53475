package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("EventQueue", func() {
	var (
		mockCtrl *gomock.Controller
		queue    *EventQueueImpl
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		queue = NewEventQueue()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should pop events in time order", func() {
		times := rand.Perm(100)
		for _, t := range times {
			evt := NewMockEvent(mockCtrl)
			evt.EXPECT().Time().Return(VTimeInUs(t)).AnyTimes()
			queue.Push(evt)
		}

		Expect(queue.Len()).To(Equal(100))

		prev := VTimeInUs(-1)
		for queue.Len() > 0 {
			evt := queue.Pop()
			Expect(evt.Time() >= prev).To(BeTrue())
			prev = evt.Time()
		}
	})

	It("should peek without removing", func() {
		evt := NewMockEvent(mockCtrl)
		evt.EXPECT().Time().Return(VTimeInUs(10)).AnyTimes()
		queue.Push(evt)

		Expect(queue.Peek().Time()).To(Equal(VTimeInUs(10)))
		Expect(queue.Len()).To(Equal(1))
	})
})
