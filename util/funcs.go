package util

import (
	"iter"

	"github.com/hashicorp/go-set/v3"
)

func ConcatIter[A any](iters ...iter.Seq[A]) iter.Seq[A] {
	return func(yield func(A) bool) {
		for _, thisIter := range iters {
			for v := range thisIter {
				if !yield(v) {
					return
				}
			}
		}
	}
}

func SingleIter[A any](elem A) iter.Seq[A] {
	return func(yield func(A) bool) {
		yield(elem)
	}
}

func MapIter[A, B any](it iter.Seq[A], f func(A) B) iter.Seq[B] {
	return func(yield func(B) bool) {
		for v := range it {
			if !yield(f(v)) {
				return
			}
		}
	}
}

func SetFromSeq[V comparable](s iter.Seq[V], size int) *set.Set[V] {
	newSet := set.New[V](size)
	for item := range s {
		newSet.Insert(item)
	}
	return newSet
}
