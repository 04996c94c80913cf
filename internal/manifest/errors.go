// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package manifest

import "errors"

var (
	// ErrNotFound reports that the manifest path does not exist.
	ErrNotFound = errors.New("manifest not found")

	// ErrSceneNotListed reports that a scene name was requested which the
	// manifest does not declare.
	ErrSceneNotListed = errors.New("scene not listed in manifest")

	// ErrMalformedCaseCount reports a case count that is zero, negative, or
	// not a whole number. A scene with no runnable cases is a manifest bug,
	// not an empty unit of work.
	ErrMalformedCaseCount = errors.New("malformed case count")

	// ErrNoScenes reports a manifest that parsed cleanly but declares no
	// scenes at all.
	ErrNoScenes = errors.New("manifest declares no scenes")
)
