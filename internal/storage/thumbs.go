/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// DefaultThumbSize is the bounding box edge for diagram thumbnails.
const DefaultThumbSize = 160

// MakeThumbnail scales src to fit within a maxDim square, preserving aspect
// ratio. Images already inside the box are returned at original size.
func MakeThumbnail(src image.Image, maxDim int) *image.RGBA {
	if maxDim <= 0 {
		maxDim = DefaultThumbSize
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	tw, th := w, h
	if w > maxDim || h > maxDim {
		if w >= h {
			tw = maxDim
			th = h * maxDim / w
		} else {
			th = maxDim
			tw = w * maxDim / h
		}
		if tw < 1 {
			tw = 1
		}
		if th < 1 {
			th = 1
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// EncodeThumbnailPNG scales src and returns the PNG bytes plus the thumbnail size.
func EncodeThumbnailPNG(src image.Image, maxDim int) ([]byte, int, int, error) {
	t := MakeThumbnail(src, maxDim)
	var buf bytes.Buffer
	if err := png.Encode(&buf, t); err != nil {
		return nil, 0, 0, fmt.Errorf("encode thumbnail: %w", err)
	}
	b := t.Bounds()
	return buf.Bytes(), b.Dx(), b.Dy(), nil
}
