package kernel

import (
	"github.com/gomlx/exceptions"

	"github.com/Padarn/Open3D/core"
)

// Copy copies src into dst elementwise, broadcasting src as needed. Both
// tensors must share one dtype; use Cast to convert. Strided and permuted
// destinations are handled through the indexer.
func Copy(src, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() {
		ind := core.NewIndexer([]*core.Tensor{src}, dst, core.DtypePolicyAllSame, nil)
		byteSize := int64(dst.DType().Size())
		Default().Run(ind.NumWorkloads(), func(workloadIdx int64) {
			copyElement(ind.GetOutputPtr(workloadIdx), ind.GetInputPtr(0, workloadIdx), byteSize)
		})
	})
}

// Cast copies src into dst elementwise with dtype conversion, broadcasting
// src as needed. Integer to narrower integer truncates, float to integer
// truncates towards zero, anything to Bool becomes value != 0.
func Cast(src, dst *core.Tensor) error {
	return exceptions.TryCatch[error](func() {
		if src.DType() == dst.DType() {
			if err := Copy(src, dst); err != nil {
				panic(err)
			}
			return
		}
		ind := core.NewIndexer([]*core.Tensor{src}, dst, core.DtypePolicyNone, nil)
		srcDtype, dstDtype := src.DType(), dst.DType()
		// Widen through int64 when both sides are integral so 64-bit values
		// survive the round trip; otherwise through float64.
		if srcDtype.IsInt() && dstDtype.IsInt() {
			Default().Run(ind.NumWorkloads(), func(workloadIdx int64) {
				v := loadAs[int64](ind.GetInputPtr(0, workloadIdx), srcDtype)
				storeFrom(ind.GetOutputPtr(workloadIdx), dstDtype, v)
			})
			return
		}
		Default().Run(ind.NumWorkloads(), func(workloadIdx int64) {
			v := loadAs[float64](ind.GetInputPtr(0, workloadIdx), srcDtype)
			storeFrom(ind.GetOutputPtr(workloadIdx), dstDtype, v)
		})
	})
}

// Fill sets every element of dst to value, converted to dst's dtype.
func Fill(dst *core.Tensor, value float64) error {
	return exceptions.TryCatch[error](func() {
		it := core.NewTensorIterator(dst)
		dtype := dst.DType()
		Default().Run(it.NumWorkloads(), func(workloadIdx int64) {
			storeFrom(it.GetPtr(workloadIdx), dtype, value)
		})
	})
}
