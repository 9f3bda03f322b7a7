package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codechunk/internal/types"
)

func TestJavaScriptExtractor(t *testing.T) {
	parser := newTestParser(t, NewJavaScriptExtractor())

	t.Run("imports functions and classes", func(t *testing.T) {
		code := `import fs from 'fs';
import { join } from 'path';

/**
 * Reads a config file.
 */
function readConfig(path) {
    return fs.readFileSync(path);
}

async function* watchEvents(source) {
    yield source;
}

class Store {
    #items = [];
    static instance = null;

    constructor(name) {
        this.name = name;
    }

    add(item) {
        this.#items.push(item);
    }

    get size() {
        return this.#items.length;
    }
}`
		result := parser.Parse([]byte(code), "store.js")
		require.True(t, result.Success, "errors: %v", result.Errors)
		require.False(t, result.FallbackRequired, "warnings: %v", result.Warnings)

		imports := 0
		for _, el := range result.Elements {
			if el.Type == types.ElementImport {
				imports++
			}
		}
		assert.Equal(t, 2, imports)
		assert.Equal(t, "fs", result.Elements[0].Name, "import name is the module source")

		readConfig := findElement(result.Elements, "readConfig")
		require.NotNil(t, readConfig)
		assert.Equal(t, types.ElementFunction, readConfig.Type)
		assert.Contains(t, readConfig.Documentation, "Reads a config file.")
		require.Len(t, readConfig.Parameters, 1)
		assert.Equal(t, "path", readConfig.Parameters[0].Name)

		watch := findElement(result.Elements, "watchEvents")
		require.NotNil(t, watch)
		assert.True(t, watch.HasModifier(types.ModifierAsync))
		assert.Equal(t, true, watch.Extra["is_generator"])

		store := findElement(result.Elements, "Store")
		require.NotNil(t, store)
		assert.Equal(t, types.ElementClass, store.Type)

		ctor := findElement(store.Children, "constructor")
		require.NotNil(t, ctor)
		assert.Equal(t, types.ElementConstructor, ctor.Type)
		assert.Equal(t, "Store", ctor.ParentName)

		add := findElement(store.Children, "add")
		require.NotNil(t, add)
		assert.Equal(t, types.ElementMethod, add.Type)

		size := findElement(store.Children, "size")
		require.NotNil(t, size)
		assert.Equal(t, "get", size.Extra["accessor"])

		instance := findElement(store.Children, "instance")
		require.NotNil(t, instance)
		assert.Equal(t, types.ElementField, instance.Type)
		assert.True(t, instance.HasModifier(types.ModifierStatic))
	})

	t.Run("arrow functions bound to const", func(t *testing.T) {
		code := `const add = (a, b) => a + b;

const fetchUser = async (id) => {
    return api.get(id);
};

let counter = 0;
const LIMIT = 100;`
		result := parser.Parse([]byte(code), "util.js")
		require.True(t, result.Success)
		require.False(t, result.FallbackRequired)

		add := findElement(result.Elements, "add")
		require.NotNil(t, add)
		assert.Equal(t, types.ElementFunction, add.Type, "const arrow chunks like a function")
		require.Len(t, add.Parameters, 2)

		fetchUser := findElement(result.Elements, "fetchUser")
		require.NotNil(t, fetchUser)
		assert.Equal(t, types.ElementFunction, fetchUser.Type)
		assert.True(t, fetchUser.HasModifier(types.ModifierAsync))

		counter := findElement(result.Elements, "counter")
		require.NotNil(t, counter)
		assert.Equal(t, types.ElementVariable, counter.Type)

		limit := findElement(result.Elements, "LIMIT")
		require.NotNil(t, limit)
		assert.Equal(t, types.ElementConstant, limit.Type)
	})

	t.Run("export statements keep declaration identity", func(t *testing.T) {
		code := `export function helper() { return 1; }

export class Engine {}

export { helper as aid } from './other';

export default function main() {}`
		result := parser.Parse([]byte(code), "mod.js")
		require.True(t, result.Success)

		helper := findElement(result.Elements, "helper")
		require.NotNil(t, helper)
		assert.Equal(t, types.ElementFunction, helper.Type)
		assert.Equal(t, true, helper.Extra["exported"])
		assert.Contains(t, helper.Content, "export function helper")

		engine := findElement(result.Elements, "Engine")
		require.NotNil(t, engine)
		assert.Equal(t, types.ElementClass, engine.Type)
		assert.Equal(t, true, engine.Extra["exported"])

		var reExport *types.SemanticElement
		for _, el := range result.Elements {
			if el.Type == types.ElementExport {
				reExport = el
				break
			}
		}
		require.NotNil(t, reExport, "bare re-export becomes an export element")
		assert.Equal(t, "./other", reExport.Name)
	})

	t.Run("commonjs exports", func(t *testing.T) {
		code := `const process = require('process');

function run() {}

module.exports = { run };
exports.helper = run;`
		result := parser.Parse([]byte(code), "cjs.js")
		require.True(t, result.Success)

		var exported []string
		for _, el := range result.Elements {
			if el.Type == types.ElementExport {
				exported = append(exported, el.Name)
			}
		}
		assert.Equal(t, []string{"module.exports", "exports.helper"}, exported)
	})

	t.Run("class heritage", func(t *testing.T) {
		code := `class Derived extends Base {}`
		result := parser.Parse([]byte(code), "d.js")
		require.True(t, result.Success)

		derived := findElement(result.Elements, "Derived")
		require.NotNil(t, derived)
		bases, ok := derived.Extra["base_types"].([]string)
		require.True(t, ok)
		assert.Equal(t, []string{"Base"}, bases)
	})
}
