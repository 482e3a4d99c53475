package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should run events in time order", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		evt1 := NewMockEvent(mockCtrl)
		evt2 := NewMockEvent(mockCtrl)
		evt3 := NewMockEvent(mockCtrl)

		evt1.EXPECT().Time().Return(VTimeInUs(4000)).AnyTimes()
		evt1.EXPECT().Handler().Return(handler1).AnyTimes()
		evt2.EXPECT().Time().Return(VTimeInUs(2000)).AnyTimes()
		evt2.EXPECT().Handler().Return(handler2).AnyTimes()
		evt3.EXPECT().Time().Return(VTimeInUs(3000)).AnyTimes()
		evt3.EXPECT().Handler().Return(handler1).AnyTimes()

		handleEvt2 := handler2.EXPECT().Handle(evt2).Do(func(e Event) {
			engine.Schedule(evt3)
		})
		handleEvt3 := handler1.EXPECT().
			Handle(evt3).Do(func(e Event) {}).After(handleEvt2)
		handler1.EXPECT().
			Handle(evt1).Do(func(e Event) {}).After(handleEvt3)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		Expect(engine.Run()).To(Succeed())
		Expect(engine.CurrentTime()).To(Equal(VTimeInUs(4000)))
	})

	It("should stop when halted from within a handler", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := NewMockEvent(mockCtrl)
		evt2 := NewMockEvent(mockCtrl)

		evt1.EXPECT().Time().Return(VTimeInUs(1000)).AnyTimes()
		evt1.EXPECT().Handler().Return(handler).AnyTimes()
		evt2.EXPECT().Time().Return(VTimeInUs(2000)).AnyTimes()
		evt2.EXPECT().Handler().Return(handler).AnyTimes()

		handler.EXPECT().Handle(evt1).Do(func(e Event) {
			engine.Halt()
		})

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		Expect(engine.Run()).To(Succeed())
		Expect(engine.CurrentTime()).To(Equal(VTimeInUs(1000)))
	})

	It("should invoke hooks around each event", func() {
		handler := NewMockHandler(mockCtrl)
		evt := NewMockEvent(mockCtrl)

		evt.EXPECT().Time().Return(VTimeInUs(1000)).AnyTimes()
		evt.EXPECT().Handler().Return(handler).AnyTimes()
		handler.EXPECT().Handle(evt)

		var positions []*HookPos
		engine.AcceptHook(hookFunc(func(ctx HookCtx) {
			positions = append(positions, ctx.Pos)
		}))

		engine.Schedule(evt)

		Expect(engine.Run()).To(Succeed())
		Expect(positions).To(Equal(
			[]*HookPos{HookPosBeforeEvent, HookPosAfterEvent}))
	})

	It("should panic when scheduling an event in the past", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := NewMockEvent(mockCtrl)

		evt1.EXPECT().Time().Return(VTimeInUs(1000)).AnyTimes()
		evt1.EXPECT().Handler().Return(handler).AnyTimes()
		handler.EXPECT().Handle(evt1)

		engine.Schedule(evt1)
		Expect(engine.Run()).To(Succeed())

		late := NewMockEvent(mockCtrl)
		late.EXPECT().Time().Return(VTimeInUs(500)).AnyTimes()

		Expect(func() { engine.Schedule(late) }).To(Panic())
	})
})

type hookFunc func(ctx HookCtx)

func (f hookFunc) Func(ctx HookCtx) {
	f(ctx)
}
