package driver

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("ParseTrace", func() {
	It("should parse reads and writes", func() {
		ops, err := ParseTrace(strings.NewReader(
			"r 0x10\nW 1f 42\nread 0X20\nwrite 8\n"))

		Expect(err).ToNot(HaveOccurred())
		Expect(ops).To(Equal([]Op{
			{Kind: OpRead, Address: 0x10},
			{Kind: OpWrite, Address: 0x1f, Value: 42},
			{Kind: OpRead, Address: 0x20},
			{Kind: OpWrite, Address: 0x8, Value: 1},
		}))
	})

	It("should skip comments, blank lines and unknown ops", func() {
		ops, err := ParseTrace(strings.NewReader(
			"# header\n\n   \nr\nflush 0x10\n  r 4  \n"))

		Expect(err).ToNot(HaveOccurred())
		Expect(ops).To(Equal([]Op{{Kind: OpRead, Address: 4}}))
	})

	It("should report a bad address with its line", func() {
		_, err := ParseTrace(strings.NewReader("r 0x10\nr zz\n"))

		Expect(errors.Is(err, ErrSyntax)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("line 2"))
	})

	It("should report bad data", func() {
		_, err := ParseTrace(strings.NewReader("w 0x10 -3\n"))

		Expect(errors.Is(err, ErrSyntax)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("line 1"))
	})

	It("should return nothing for an empty trace", func() {
		ops, err := ParseTrace(strings.NewReader(""))

		Expect(err).ToNot(HaveOccurred())
		Expect(ops).To(BeEmpty())
	})
})

var _ = Describe("RunTrace", func() {
	var (
		mockCtrl *gomock.Controller
		accessor *MockAccessor
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		accessor = NewMockAccessor(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should replay the operations in order", func() {
		gomock.InOrder(
			accessor.EXPECT().Write(uint64(0x4), uint64(7)).Return(nil),
			accessor.EXPECT().Read(uint64(0x4)).Return(uint64(7), nil),
			accessor.EXPECT().Read(uint64(0x8)).Return(uint64(0), nil),
		)

		result, err := RunTrace(accessor,
			strings.NewReader("w 4 7\nr 4\nr 8\n"))

		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(Equal(TraceResult{Ops: 3, Reads: 2, Writes: 1}))
	})

	It("should not replay anything if the trace does not parse", func() {
		_, err := RunTrace(accessor, strings.NewReader("r 4\nr nope\n"))

		Expect(errors.Is(err, ErrSyntax)).To(BeTrue())
	})

	It("should stop at the first failing operation", func() {
		failure := errors.New("out of range")

		gomock.InOrder(
			accessor.EXPECT().Read(uint64(0x1)).Return(uint64(0), nil),
			accessor.EXPECT().Read(uint64(0x2)).Return(uint64(0), failure),
		)

		_, err := RunTrace(accessor, strings.NewReader("r 1\nr 2\nr 3\n"))

		var opErr *OpError
		Expect(errors.As(err, &opErr)).To(BeTrue())
		Expect(opErr.Index).To(Equal(1))
		Expect(opErr.Op.Address).To(Equal(uint64(2)))
		Expect(errors.Is(err, failure)).To(BeTrue())
	})
})
